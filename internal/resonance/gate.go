package resonance

import (
	"fmt"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Gate is the single place that decides whether a solution may leave the engine.
type Gate struct {
	policy GatePolicy
}

func NewGate(policy GatePolicy) *Gate {
	return &Gate{policy: policy}
}

// Thresholds returns the active threshold pair.
func (g *Gate) Thresholds() hre.GateThresholds {
	return hre.GateThresholds{MinPTotal: g.policy.MinPTotal, MinGammaFoam: g.policy.MinGammaFoam}
}

// Evaluate accepts iff top.PTotal >= MinPTotal and gammaFoam > MinGammaFoam. A nil top means
// nothing survived scoring; the decision is blocked with no signals.
func (g *Gate) Evaluate(top *hre.Hypothesis, gammaFoam float64) hre.GateDecision {
	decision := hre.GateDecision{Thresholds: g.Thresholds()}
	if top == nil {
		decision.Decision = hre.GateBlocked
		decision.Reason = "no scored hypotheses"
		return decision
	}

	decision.Signals = &hre.GateSignals{GammaFoam: gammaFoam, PTotal: top.PTotal}
	pOK := top.PTotal >= g.policy.MinPTotal
	foamOK := gammaFoam > g.policy.MinGammaFoam
	switch {
	case pOK && foamOK:
		decision.Decision = hre.GateAccepted
	case !pOK && !foamOK:
		decision.Decision = hre.GateBlocked
		decision.Reason = fmt.Sprintf("p_total %.4g below %.4g and gamma_foam %.4g not above %.4g",
			top.PTotal, g.policy.MinPTotal, gammaFoam, g.policy.MinGammaFoam)
	case !pOK:
		decision.Decision = hre.GateBlocked
		decision.Reason = fmt.Sprintf("p_total %.4g below %.4g", top.PTotal, g.policy.MinPTotal)
	default:
		decision.Decision = hre.GateBlocked
		decision.Reason = fmt.Sprintf("gamma_foam %.4g not above %.4g", gammaFoam, g.policy.MinGammaFoam)
	}
	return decision
}
