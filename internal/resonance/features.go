package resonance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// ClauseKind classifies one constraint clause.
type ClauseKind int

const (
	ClauseNeutral ClauseKind = iota
	// ClauseExcludesDomains forbids the domains it names.
	ClauseExcludesDomains
	// ClauseContradictsGoal asks for the opposite of the goal on the goal's own object; every
	// candidate violates it.
	ClauseContradictsGoal
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseExcludesDomains:
		return "excludes_domains"
	case ClauseContradictsGoal:
		return "contradicts_goal"
	default:
		return "neutral"
	}
}

// Clause is a parsed constraint fragment.
type Clause struct {
	Text    string
	Kind    ClauseKind
	Domains []string // catalog keys, set for ClauseExcludesDomains
}

// Frame is the text-derived context shared by every candidate of a run. It is computed once
// per request and never mutated.
type Frame struct {
	// Intent is in (-1, 1): positive for benefit-seeking wording, negative for harm.
	Intent   float64
	Relevant map[string]bool
	Clauses  []Clause
}

var (
	benefitStems = []string{
		"улучш", "повыс", "увелич", "помо", "защит", "лечен", "безопас", "доступ", "развит",
		"оптимиз", "найти", "созда",
		"improv", "increas", "help", "protect", "heal", "safe", "access", "develop", "optimi",
		"find", "discover", "enabl",
	}
	harmStems = []string{
		"вред", "оруж", "уничтож", "обман", "манипул", "эксплуат", "убий",
		"harm", "weapon", "destroy", "deceiv", "manipulat", "exploit", "kill",
	}
	negationWords = map[string]bool{
		"не": true, "нет": true, "без": true, "ни": true, "нельзя": true,
		"no": true, "not": true, "never": true, "without": true, "cannot": true,
	}
	negationStems = []string{"запрещ", "исключ", "избег", "forbid", "prohibit", "avoid", "exclud"}
	// comparativeWords after a negation make a bound ("no more than"), not a negation.
	comparativeWords = map[string]bool{
		"more": true, "less": true, "fewer": true, "later": true, "earlier": true, "longer": true,
		"более": true, "менее": true, "больше": true, "меньше": true, "позднее": true, "раньше": true, "дольше": true,
	}
	// Direction verbs give a goal or clause a polarity; opposite polarities on the same object
	// contradict each other.
	upStems = []string{
		"повыс", "повыш", "увелич", "улучш", "расшир", "ускор", "усил",
		"increas", "improv", "rais", "boost", "expand", "enhanc", "grow", "accelerat", "strengthen",
	}
	downStems = []string{
		"сниз", "сниж", "уменьш", "ухудш", "сократ", "сокращ", "замедл", "ослаб",
		"decreas", "reduc", "lower", "worsen", "degrad", "shrink", "diminish", "slow", "weaken",
	}
	stopwords = map[string]bool{
		"этот": true, "этого": true, "который": true, "которые": true, "также": true, "чтобы": true,
		"для": true, "with": true, "that": true, "this": true, "from": true, "into": true,
		"should": true, "must": true, "have": true, "будет": true, "можно": true,
	}
)

// tokenize lowercases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// contentStems returns stems of the words that carry meaning.
func contentStems(text string) []string {
	var stems []string
	for _, tok := range tokenize(text) {
		if utf8.RuneCountInString(tok) < 4 || stopwords[tok] {
			continue
		}
		stems = append(stems, hre.Stem(tok))
	}
	return stems
}

func hasPrefixAny(word string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(word, p) {
			return true
		}
	}
	return false
}

// intentScore is (benefit - harm) / (benefit + harm + 1).
func intentScore(text string) float64 {
	var benefit, harm int
	for _, tok := range tokenize(text) {
		switch {
		case hasPrefixAny(tok, harmStems):
			harm++
		case hasPrefixAny(tok, benefitStems):
			benefit++
		}
	}
	return float64(benefit-harm) / float64(benefit+harm+1)
}

func isNegated(tokens []string) bool {
	for i, tok := range tokens {
		if negationWords[tok] {
			if i+1 < len(tokens) && comparativeWords[tokens[i+1]] {
				continue
			}
			return true
		}
		if hasPrefixAny(tok, negationStems) {
			return true
		}
	}
	return false
}

// polarity is +1 for the first increasing verb, -1 for the first decreasing one, 0 for none.
func polarity(tokens []string) int {
	for _, tok := range tokens {
		switch {
		case hasPrefixAny(tok, upStems):
			return 1
		case hasPrefixAny(tok, downStems):
			return -1
		}
	}
	return 0
}

// objectStems are the content stems of text without its direction verbs.
func objectStems(text string) []string {
	var stems []string
	for _, tok := range tokenize(text) {
		if utf8.RuneCountInString(tok) < 4 || stopwords[tok] {
			continue
		}
		if hasPrefixAny(tok, upStems) || hasPrefixAny(tok, downStems) {
			continue
		}
		stems = append(stems, hre.Stem(tok))
	}
	return stems
}

// covers reports whether at least half of want is matched by some stem of have.
func covers(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	matched := 0
	for _, w := range want {
		for _, h := range have {
			if hre.StemsMatch(w, h) {
				matched++
				break
			}
		}
	}
	return 2*matched >= len(want)
}

// contradictsGoal reports whether a clause asks for the opposite of the goal on the same
// object: a negated clause with the goal's direction, or an affirmed clause with the
// opposite direction. Restrictions on a property of candidates cover too little of the goal
// to count.
func contradictsGoal(tokens []string, clauseText string, goal goalFrame) bool {
	if !covers(objectStems(clauseText), goal.objects) {
		return false
	}
	negated := isNegated(tokens)
	dir := polarity(tokens)
	if goal.polarity != 0 && dir != 0 {
		return (dir != goal.polarity) != negated
	}
	return negated
}

type goalFrame struct {
	polarity int
	objects  []string
}

// mentionsDomain matches by name and alias only; topical keywords do not count as naming a domain.
func mentionsDomain(tokens []string, d hre.Domain) bool {
	names := append([]string{d.Key, d.Name, d.NameEN}, d.Aliases...)
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < 4 {
			continue
		}
		ts := hre.Stem(tok)
		for _, n := range names {
			if hre.StemsMatch(ts, hre.Stem(strings.ToLower(n))) {
				return true
			}
		}
	}
	return false
}

func relevantTo(stems []string, d hre.Domain) bool {
	var ref []string
	for _, kw := range d.Keywords {
		ref = append(ref, hre.Stem(strings.ToLower(kw)))
	}
	for _, n := range []string{d.Name, d.NameEN} {
		ref = append(ref, hre.Stem(strings.ToLower(n)))
	}
	for _, s := range stems {
		for _, r := range ref {
			if strings.HasPrefix(s, r) || (strings.HasPrefix(r, s) && utf8.RuneCountInString(s) >= 5) {
				return true
			}
		}
	}
	return false
}

func splitClauses(constraints string) []string {
	parts := strings.FieldsFunc(constraints, func(r rune) bool {
		return r == ';' || r == '.' || r == ',' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildFrame derives intent, per-domain relevance and constraint clauses from the request text.
func BuildFrame(task, goal, constraints string, catalog *hre.Catalog) Frame {
	frame := Frame{
		Intent:   intentScore(task + " " + goal),
		Relevant: make(map[string]bool),
	}

	textStems := contentStems(task + " " + goal)
	for _, d := range catalog.All() {
		if relevantTo(textStems, d) {
			frame.Relevant[d.Key] = true
		}
	}

	target := goalFrame{polarity: polarity(tokenize(goal)), objects: objectStems(goal)}
	for _, text := range splitClauses(constraints) {
		tokens := tokenize(text)
		clause := Clause{Text: text, Kind: ClauseNeutral}
		if isNegated(tokens) {
			for _, d := range catalog.All() {
				if mentionsDomain(tokens, d) {
					clause.Domains = append(clause.Domains, d.Key)
				}
			}
		}
		switch {
		case len(clause.Domains) > 0:
			clause.Kind = ClauseExcludesDomains
		case contradictsGoal(tokens, text, target):
			clause.Kind = ClauseContradictsGoal
		}
		frame.Clauses = append(frame.Clauses, clause)
	}
	return frame
}

// Violations counts the clauses a draft breaks.
func (f Frame) Violations(d hre.Draft) int {
	n := 0
	for _, c := range f.Clauses {
		switch c.Kind {
		case ClauseContradictsGoal:
			n++
		case ClauseExcludesDomains:
			if draftHasAny(d, c.Domains) {
				n++
			}
		}
	}
	return n
}

// Excluded reports whether some clause forbids the domain.
func (f Frame) Excluded(key string) bool {
	for _, c := range f.Clauses {
		if c.Kind != ClauseExcludesDomains {
			continue
		}
		for _, k := range c.Domains {
			if k == key {
				return true
			}
		}
	}
	return false
}

func draftHasAny(d hre.Draft, keys []string) bool {
	for _, dom := range d.Domains {
		for _, k := range keys {
			if dom.Key == k {
				return true
			}
		}
	}
	return false
}
