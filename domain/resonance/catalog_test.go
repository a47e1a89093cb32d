package resonance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qqewq/harmonized-mind/domain/core"
)

func TestCatalog_Resolve(t *testing.T) {
	c := DefaultCatalog()

	domains, display, err := c.Resolve([]string{"Физика", "mathematics", "  физика  "})
	require.NoError(t, err)
	require.Len(t, domains, 2)
	// canonical order follows the catalog, display keeps the caller's order
	assert.Equal(t, "physics", domains[0].Key)
	assert.Equal(t, "mathematics", domains[1].Key)
	assert.Equal(t, []string{"Физика", "mathematics"}, display)
}

func TestSortCanonical(t *testing.T) {
	all := DefaultCatalog().All()
	require.GreaterOrEqual(t, len(all), 4)

	domains := []Domain{all[3], all[0], all[2], all[1]}
	SortCanonical(domains)
	assert.Equal(t, []Domain{all[0], all[1], all[2], all[3]}, domains)

	SortCanonical(nil)
}

func TestCatalog_ResolveUnknown(t *testing.T) {
	_, _, err := DefaultCatalog().Resolve([]string{"Астрология"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownDomain)
	assert.True(t, core.IsInvalidInputError(err))

	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "domains", invalid.Field)
}

func TestCatalog_LookupIsCaseInsensitive(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range []string{"МЕДИЦИНА", "healthcare", "Medicine", "medicine"} {
		d, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "medicine", d.Key)
	}
}

func TestNewCatalog_RejectsBadProfiles(t *testing.T) {
	base := DefaultDomains()[0]

	short := base
	short.Axis = []float64{1, 0}
	_, err := NewCatalog([]Domain{short})
	assert.Error(t, err)

	badP := base
	badP.BaseP = 1
	_, err = NewCatalog([]Domain{badP})
	assert.Error(t, err)

	dup := DefaultDomains()[1]
	dup.Aliases = []string{"medicine"}
	_, err = NewCatalog([]Domain{base, dup})
	assert.Error(t, err)

	_, err = NewCatalog(nil)
	assert.Error(t, err)
}

func TestNewCatalog_AllowsZeroMass(t *testing.T) {
	d := DefaultDomains()[0]
	d.Mass = []float64{0, 0, 0}
	c, err := NewCatalog([]Domain{d})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestStem(t *testing.T) {
	assert.Equal(t, "математ", Stem("математика"))
	assert.Equal(t, "cure", Stem("cure"))
	assert.Equal(t, "heal", Stem("heals"))
	assert.True(t, StemsMatch("здоров", "здоровье"))
	assert.False(t, StemsMatch("", "x"))
}

func TestCandidateKind_Text(t *testing.T) {
	k := KindPairwise | KindSynthesis
	assert.Equal(t, "pairwise+synthesis", k.String())

	b, err := k.MarshalText()
	require.NoError(t, err)
	var back CandidateKind
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, k, back)
	assert.True(t, back.Has(KindSynthesis))
	assert.False(t, back.Has(KindFallback))
}

func TestParseLang(t *testing.T) {
	l, ok := ParseLang("")
	assert.True(t, ok)
	assert.Equal(t, LangRU, l)
	l, ok = ParseLang("EN")
	assert.True(t, ok)
	assert.Equal(t, LangEN, l)
	_, ok = ParseLang("de")
	assert.False(t, ok)
}
