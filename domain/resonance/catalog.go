package resonance

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/qqewq/harmonized-mind/domain/core"
)

// ProfileDims is the length of the Quality and Mass vectors; AxisDims the length of Axis.
const (
	ProfileDims = 3
	AxisDims    = 4
)

// Domain is one entry of the fixed domain catalog.
//
// Quality (q) and Mass (m) feed the resonance frequency ω = Σ q/m, Axis is the domain's
// orientation on the (rigor, care, utility, speculation) axes used for coherence, BaseP is
// the single-domain success likelihood.
type Domain struct {
	Key      string    `yaml:"key" json:"key" validate:"required"`
	Name     string    `yaml:"name" json:"name" validate:"required"`
	NameEN   string    `yaml:"name_en" json:"nameEn" validate:"required"`
	Aliases  []string  `yaml:"aliases" json:"aliases,omitempty"`
	Keywords []string  `yaml:"keywords" json:"keywords,omitempty"`
	BaseP    float64   `yaml:"base_p" json:"baseP" validate:"gt=0,lt=1"`
	Quality  []float64 `yaml:"quality" json:"quality" validate:"len=3,dive,gte=0,lte=1"`
	Mass     []float64 `yaml:"mass" json:"mass" validate:"len=3,dive,gte=0"`
	Axis     []float64 `yaml:"axis" json:"axis" validate:"len=4,dive,gte=-1,lte=1"`

	// Index is the catalog position; it fixes canonical ordering.
	Index int `yaml:"-" json:"-"`
}

// DisplayName returns the domain name in the given language.
func (d Domain) DisplayName(lang Lang) string {
	if lang == LangEN {
		return d.NameEN
	}
	return d.Name
}

// GeneralKey is the catch-all domain used when a free-text prompt names no domain.
const GeneralKey = "general"

// Catalog is the fixed, enumerated set of domains the engine understands.
type Catalog struct {
	domains []Domain
	byName  map[string]int
}

// NewCatalog validates the domain list and indexes names and aliases case-insensitively.
func NewCatalog(domains []Domain) (*Catalog, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("domain catalog is empty")
	}
	c := &Catalog{byName: make(map[string]int)}
	for i, d := range domains {
		if d.Key == "" || d.Name == "" {
			return nil, fmt.Errorf("domain %d: key and name are required", i)
		}
		if len(d.Quality) != ProfileDims || len(d.Mass) != ProfileDims || len(d.Axis) != AxisDims {
			return nil, fmt.Errorf("domain %s: profile must have %d quality, %d mass and %d axis values",
				d.Key, ProfileDims, ProfileDims, AxisDims)
		}
		if !(d.BaseP > 0 && d.BaseP < 1) {
			return nil, fmt.Errorf("domain %s: base_p %.3f outside (0,1)", d.Key, d.BaseP)
		}
		for _, v := range append(append([]float64{}, d.Quality...), d.Mass...) {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("domain %s: quality and mass must be finite and non-negative", d.Key)
			}
		}
		d.Index = i
		c.domains = append(c.domains, d)
		for _, name := range append([]string{d.Key, d.Name, d.NameEN}, d.Aliases...) {
			norm := normalizeName(name)
			if norm == "" {
				continue
			}
			if prev, dup := c.byName[norm]; dup && prev != i {
				return nil, fmt.Errorf("domain name %q is ambiguous (%s, %s)", name, domains[prev].Key, d.Key)
			}
			c.byName[norm] = i
		}
	}
	return c, nil
}

// All returns the catalog in canonical order.
func (c *Catalog) All() []Domain {
	out := make([]Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// Len returns the number of domains.
func (c *Catalog) Len() int { return len(c.domains) }

// Lookup finds a domain by key, Russian or English name, or alias.
func (c *Catalog) Lookup(name string) (Domain, bool) {
	i, ok := c.byName[normalizeName(name)]
	if !ok {
		return Domain{}, false
	}
	return c.domains[i], true
}

// Resolve maps caller-supplied names to catalog domains. It returns the domains in
// canonical catalog order and the de-duplicated display names in caller order.
func (c *Catalog) Resolve(names []string) ([]Domain, []string, error) {
	seen := make(map[string]bool, len(names))
	var resolved []Domain
	var display []string
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		d, ok := c.Lookup(trimmed)
		if !ok {
			return nil, nil, &InvalidInputError{
				Field:  "domains",
				Reason: fmt.Sprintf("unknown domain %q", trimmed),
				Err:    core.ErrUnknownDomain,
			}
		}
		if seen[d.Key] {
			continue
		}
		seen[d.Key] = true
		resolved = append(resolved, d)
		display = append(display, trimmed)
	}
	SortCanonical(resolved)
	return resolved, display, nil
}

// SortCanonical orders domains by catalog index in place.
func SortCanonical(domains []Domain) {
	slices.SortFunc(domains, func(a, b Domain) int { return cmp.Compare(a.Index, b.Index) })
}

// Stem cuts a lowercased word to a prefix that survives Russian and English inflection:
// two runes shorter than the word, but never shorter than four runes.
func Stem(word string) string {
	n := utf8.RuneCountInString(word)
	keep := n - 2
	if keep < 4 {
		keep = 4
	}
	if keep >= n {
		return word
	}
	runes := []rune(word)
	return string(runes[:keep])
}

// StemsMatch reports whether one stem is a prefix of the other.
func StemsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultDomains is the built-in catalog: the form's eight research domains plus the
// social, education, climate and general domains of the free-text API.
func DefaultDomains() []Domain {
	return []Domain{
		{
			Key: "medicine", Name: "Медицина", NameEN: "Medicine",
			Aliases:  []string{"healthcare", "здравоохранение", "health"},
			Keywords: []string{"медицин", "здоров", "лечен", "болезн", "пациент", "medicine", "medical", "health", "treatment", "disease", "patient"},
			BaseP:    0.64,
			Quality:  []float64{0.82, 0.74, 0.70},
			Mass:     []float64{1.1, 0.9, 1.2},
			Axis:     []float64{0.6, 0.8, 0.7, -0.3},
		},
		{
			Key: "physics", Name: "Физика", NameEN: "Physics",
			Keywords: []string{"физик", "сверхпровод", "материал", "давлени", "температур", "physics", "superconduct", "material", "pressure", "temperature"},
			BaseP:    0.66,
			Quality:  []float64{0.90, 0.70, 0.80},
			Mass:     []float64{1.0, 1.2, 0.9},
			Axis:     []float64{0.9, -0.2, 0.5, 0.3},
		},
		{
			Key: "ethics", Name: "Этика", NameEN: "Ethics",
			Keywords: []string{"этик", "мораль", "справедлив", "ethic", "moral", "fairness"},
			BaseP:    0.58,
			Quality:  []float64{0.70, 0.85, 0.60},
			Mass:     []float64{0.8, 1.0, 1.1},
			Axis:     []float64{-0.1, 0.9, -0.2, 0.4},
		},
		{
			Key: "mathematics", Name: "Математика", NameEN: "Mathematics",
			Aliases:  []string{"math", "maths"},
			Keywords: []string{"математ", "теорем", "доказател", "уравнен", "симметр", "mathemat", "theorem", "proof", "equation", "symmetr"},
			BaseP:    0.62,
			Quality:  []float64{0.95, 0.60, 0.75},
			Mass:     []float64{1.2, 0.8, 1.0},
			Axis:     []float64{1.0, -0.3, 0.2, 0.5},
		},
		{
			Key: "biology", Name: "Биология", NameEN: "Biology",
			Keywords: []string{"биолог", "клетк", "генетик", "организм", "biolog", "cell", "genetic", "organism"},
			BaseP:    0.60,
			Quality:  []float64{0.80, 0.70, 0.72},
			Mass:     []float64{1.0, 1.1, 0.9},
			Axis:     []float64{0.7, 0.5, 0.4, 0.1},
		},
		{
			Key: "chemistry", Name: "Химия", NameEN: "Chemistry",
			Keywords: []string{"хими", "молекул", "реакци", "катализ", "chemi", "molecul", "reaction", "catalys"},
			BaseP:    0.61,
			Quality:  []float64{0.85, 0.65, 0.78},
			Mass:     []float64{0.9, 1.0, 1.3},
			Axis:     []float64{0.8, -0.1, 0.7, -0.2},
		},
		{
			Key: "philosophy", Name: "Философия", NameEN: "Philosophy",
			Keywords: []string{"философ", "сознани", "смысл", "philosoph", "conscious", "meaning"},
			BaseP:    0.55,
			Quality:  []float64{0.60, 0.90, 0.55},
			Mass:     []float64{0.7, 1.3, 1.0},
			Axis:     []float64{-0.4, 0.6, -0.5, 0.9},
		},
		{
			Key: "engineering", Name: "Инженерия", NameEN: "Engineering",
			Keywords: []string{"инженер", "конструкц", "технолог", "прототип", "engineer", "technolog", "prototype"},
			BaseP:    0.65,
			Quality:  []float64{0.85, 0.60, 0.90},
			Mass:     []float64{1.3, 0.9, 1.0},
			Axis:     []float64{0.6, -0.4, 1.0, -0.5},
		},
		{
			Key: "social", Name: "Социум", NameEN: "Social",
			Aliases:  []string{"социальный", "society"},
			Keywords: []string{"женщин", "дискриминац", "социальн", "равенств", "права", "woman", "women", "rights", "discriminat", "social", "equality"},
			BaseP:    0.57,
			Quality:  []float64{0.65, 0.80, 0.70},
			Mass:     []float64{1.0, 0.8, 1.1},
			Axis:     []float64{-0.2, 0.8, 0.5, 0.2},
		},
		{
			Key: "education", Name: "Образование", NameEN: "Education",
			Keywords: []string{"образован", "школ", "университет", "обучени", "education", "school", "universit", "learning"},
			BaseP:    0.63,
			Quality:  []float64{0.75, 0.80, 0.72},
			Mass:     []float64{0.9, 1.0, 1.0},
			Axis:     []float64{0.1, 0.7, 0.6, 0.1},
		},
		{
			Key: "climate", Name: "Климат", NameEN: "Climate",
			Aliases:  []string{"экология", "ecology"},
			Keywords: []string{"климат", "эколог", "углерод", "парников", "climate", "ecolog", "carbon", "greenhouse"},
			BaseP:    0.60,
			Quality:  []float64{0.80, 0.70, 0.75},
			Mass:     []float64{1.1, 1.0, 0.9},
			Axis:     []float64{0.6, 0.5, 0.6, 0.0},
		},
		{
			Key: GeneralKey, Name: "Общее", NameEN: "General",
			Aliases: []string{"общий"},
			BaseP:   0.50,
			Quality: []float64{0.70, 0.65, 0.70},
			Mass:    []float64{1.0, 1.1, 1.0},
			Axis:    []float64{0.4, 0.4, 0.4, 0.4},
		},
	}
}

// DefaultCatalog returns the built-in catalog. It panics only if the built-in table is broken.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDomains())
	if err != nil {
		panic(fmt.Sprintf("built-in domain catalog is invalid: %v", err))
	}
	return c
}
