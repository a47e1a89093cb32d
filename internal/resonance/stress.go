package resonance

import (
	"fmt"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Inverter names.
const (
	InverterSignFlip     = "sign_flip"
	InverterGoalNegation = "goal_negation"
)

// Inverter maps a hypothesis draft to its adversarial reframing. Implementations must be
// pure: the same draft always yields the same inverted draft.
type Inverter interface {
	Name() string
	Invert(hre.Draft) hre.Draft
}

// SignFlipInverter negates both alignment terms that produced gamma.
type SignFlipInverter struct{}

func (SignFlipInverter) Name() string { return InverterSignFlip }

func (SignFlipInverter) Invert(d hre.Draft) hre.Draft {
	d.Inversion = hre.Inversion{FlipCoherence: true, FlipIntent: true}
	return d
}

// IntentInverter keeps the domain combination and negates only the request's intent, i.e.
// the same domains pursuing the opposite goal.
type IntentInverter struct{}

func (IntentInverter) Name() string { return InverterGoalNegation }

func (IntentInverter) Invert(d hre.Draft) hre.Draft {
	d.Inversion = hre.Inversion{FlipIntent: true}
	return d
}

// NewInverter resolves a policy name.
func NewInverter(name string) (Inverter, error) {
	switch name {
	case "", InverterSignFlip:
		return SignFlipInverter{}, nil
	case InverterGoalNegation:
		return IntentInverter{}, nil
	default:
		return nil, fmt.Errorf("unknown inverter %q", name)
	}
}

// StressTester re-scores the chosen hypothesis under inversion. Its result is informational
// and never changes the gate decision.
type StressTester struct {
	scorer   *Scorer
	inverter Inverter
}

func NewStressTester(scorer *Scorer, inverter Inverter) *StressTester {
	return &StressTester{scorer: scorer, inverter: inverter}
}

// Test returns gamma_inv and "stable" iff gamma_inv <= 0 < gamma.
func (t *StressTester) Test(h hre.Hypothesis, frame Frame) (hre.StressTest, error) {
	inverted := t.inverter.Invert(h.Draft)
	score, err := t.scorer.Score(inverted, frame)
	if err != nil {
		return hre.StressTest{}, fmt.Errorf("stress scoring hypothesis %d: %w", h.ID, err)
	}
	status := hre.StressUnstable
	if score.Gamma <= 0 && h.Gamma > 0 {
		status = hre.StressStable
	}
	return hre.StressTest{
		HypothesisID: h.ID,
		GammaInv:     score.Gamma,
		Status:       status,
		Inverter:     t.inverter.Name(),
	}, nil
}
