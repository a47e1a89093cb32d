package resonance

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

func hyp(id int, gamma, p float64) hre.Hypothesis {
	return hre.Hypothesis{ID: id, Gamma: gamma, PTotal: p}
}

func TestSelector_OrderAndTieBreaks(t *testing.T) {
	scored := []hre.Hypothesis{
		hyp(1, 0.5, 0.7),
		hyp(2, 0.9, 0.6),
		hyp(3, 0.5, 0.9),
		hyp(4, 0.5, 0.7),
		hyp(5, -0.2, 0.99),
		hyp(6, 0.0, 0.95),
	}
	got := NewSelector(SelectorPolicy{TopK: 10}).Select(scored)

	ids := make([]int, len(got))
	for i, h := range got {
		ids[i] = h.ID
	}
	assert.Equal(t, []int{2, 3, 1, 4, 6, 5}, ids)

	want := []hre.Status{
		hre.StatusOptimal, hre.StatusOptimal, hre.StatusSuboptimal, hre.StatusSuboptimal,
		hre.StatusRejected, hre.StatusRejected,
	}
	for i, h := range got {
		assert.Equal(t, want[i], h.Status, "rank %d", i+1)
	}

	// input untouched
	assert.Equal(t, 1, scored[0].ID)
	assert.Empty(t, scored[0].Status)
}

func TestSelector_TruncatesWithoutPadding(t *testing.T) {
	var scored []hre.Hypothesis
	for i := 1; i <= 12; i++ {
		scored = append(scored, hyp(i, float64(i)/20, 0.5))
	}
	assert.Len(t, NewSelector(SelectorPolicy{TopK: 7}).Select(scored), 7)
	assert.Len(t, NewSelector(SelectorPolicy{TopK: 7}).Select(scored[:3]), 3)
	assert.Empty(t, NewSelector(SelectorPolicy{TopK: 7}).Select(nil))
}

func TestSelector_RejectedAtTopRank(t *testing.T) {
	got := NewSelector(SelectorPolicy{TopK: 5}).Select([]hre.Hypothesis{hyp(1, -0.1, 0.9), hyp(2, -0.3, 0.9)})
	require.Len(t, got, 2)
	for _, h := range got {
		assert.Equal(t, hre.StatusRejected, h.Status)
	}
}

func TestSortHypotheses_Idempotent(t *testing.T) {
	hs := []hre.Hypothesis{hyp(3, 0.1, 0.2), hyp(1, 0.1, 0.2), hyp(2, 0.4, 0.1), hyp(4, 0.1, 0.3)}
	SortHypotheses(hs)
	once := slices.Clone(hs)
	SortHypotheses(hs)
	if diff := cmp.Diff(once, hs); diff != "" {
		t.Errorf("re-sorting changed order (-once +twice):\n%s", diff)
	}
	assert.Equal(t, 2, hs[0].ID)
	assert.Equal(t, 4, hs[1].ID)
	assert.Equal(t, 1, hs[2].ID)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, hre.StatusOptimal, StatusFor(1, 0.01))
	assert.Equal(t, hre.StatusOptimal, StatusFor(2, 0.01))
	assert.Equal(t, hre.StatusSuboptimal, StatusFor(3, 0.9))
	assert.Equal(t, hre.StatusRejected, StatusFor(1, 0))
	assert.Equal(t, hre.StatusRejected, StatusFor(1, -1))
}
