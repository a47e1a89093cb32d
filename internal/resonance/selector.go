package resonance

import (
	"cmp"
	"slices"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Selector keeps the best K scored hypotheses and labels them.
type Selector struct {
	topK int
}

func NewSelector(policy SelectorPolicy) *Selector {
	return &Selector{topK: policy.TopK}
}

// compareHypotheses orders by gamma desc, then pTotal desc, then generation order.
func compareHypotheses(a, b hre.Hypothesis) int {
	if c := cmp.Compare(b.Gamma, a.Gamma); c != 0 {
		return c
	}
	if c := cmp.Compare(b.PTotal, a.PTotal); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortHypotheses sorts in rank order. It is idempotent.
func SortHypotheses(hs []hre.Hypothesis) {
	slices.SortStableFunc(hs, compareHypotheses)
}

// Select returns at most K hypotheses in rank order with statuses assigned. The input is not
// modified and short inputs are never padded.
func (s *Selector) Select(scored []hre.Hypothesis) []hre.Hypothesis {
	ranked := slices.Clone(scored)
	SortHypotheses(ranked)
	if len(ranked) > s.topK {
		ranked = ranked[:s.topK]
	}
	for i := range ranked {
		ranked[i].Status = StatusFor(i+1, ranked[i].Gamma)
	}
	return ranked
}

// StatusFor labels a 1-based rank. Non-positive gamma is always rejected.
func StatusFor(rank int, gamma float64) hre.Status {
	switch {
	case gamma <= 0:
		return hre.StatusRejected
	case rank <= 2:
		return hre.StatusOptimal
	default:
		return hre.StatusSuboptimal
	}
}
