package resonance

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Score is the closed-form evaluation of one draft.
type Score struct {
	PTotal         float64
	Gamma          float64
	ResonancePoint float64
	Amplitude      float64
	DFractal       float64
	Coherence      float64
	Intent         float64
	Violations     int
}

// Scorer evaluates drafts. It is stateless apart from its policy and safe for concurrent use.
//
//	D_fractal = 1 + (d_base - 1) * H(m) / log(n)      normalized entropy of the mass cells
//	amplitude = mean over domains of Σ q/m
//	ω_res     = amplitude / D_fractal
//	quality   = w_c * coherence + w_i * intent
//	γ         = γ_max * tanh(k * (quality - v * (|quality| + margin)))   v = violated / clauses
//	            with the argument capped at intent when the request's intent is net harm
//	P_total   = noisy-OR of boosted domain likelihoods * (1 - penalty)^violations
type Scorer struct {
	policy ScorerPolicy
}

func NewScorer(policy ScorerPolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Score evaluates a draft against the request frame. It returns a *hre.DegenerateInputError
// when no profile cell has positive mass, which would collapse D_fractal.
func (s *Scorer) Score(draft hre.Draft, frame Frame) (Score, error) {
	dFractal, amplitude, err := s.resonance(draft)
	if err != nil {
		return Score{}, err
	}

	coherence, intent := s.alignment(draft, frame)
	quality := s.policy.CoherenceWeight*coherence + s.policy.IntentWeight*intent

	violations := frame.Violations(draft)
	var violatedShare float64
	if len(frame.Clauses) > 0 {
		violatedShare = float64(violations) / float64(len(frame.Clauses))
	}
	raw := quality - violatedShare*(math.Abs(quality)+s.policy.ViolationMargin)
	if frame.Intent < 0 {
		// Net harm is decisive: no domain coherence can make it constructive.
		raw = math.Min(raw, frame.Intent)
	}

	return Score{
		PTotal:         s.pTotal(draft, frame, violations),
		Gamma:          s.policy.GammaMax * math.Tanh(s.policy.GammaSteepness*raw),
		ResonancePoint: amplitude / dFractal,
		Amplitude:      amplitude,
		DFractal:       dFractal,
		Coherence:      coherence,
		Intent:         intent,
		Violations:     violations,
	}, nil
}

// resonance returns D_fractal and the amplitude Σ q/m averaged over domains. Cells with
// non-positive mass carry no resonance and are skipped.
func (s *Scorer) resonance(draft hre.Draft) (float64, float64, error) {
	var masses []float64
	var amplitude float64
	for _, d := range draft.Domains {
		for k := range d.Mass {
			if d.Mass[k] <= 0 {
				continue
			}
			masses = append(masses, d.Mass[k])
			amplitude += d.Quality[k] / d.Mass[k]
		}
	}
	total := floats.Sum(masses)
	if len(masses) == 0 || total <= 0 {
		return 0, 0, &hre.DegenerateInputError{
			HypothesisID: draft.ID,
			Reason:       "no profile cell has positive mass, D_fractal is undefined",
		}
	}
	amplitude /= float64(len(draft.Domains))

	var normEntropy float64
	if n := len(masses); n > 1 {
		p := make([]float64, n)
		floats.ScaleTo(p, 1/total, masses)
		normEntropy = stat.Entropy(p) / math.Log(float64(n))
	}
	dFractal := 1 + (s.policy.DBase-1)*normEntropy
	return dFractal, amplitude, nil
}

// alignment returns the coherence and intent terms, after any inversion the draft carries.
func (s *Scorer) alignment(draft hre.Draft, frame Frame) (float64, float64) {
	var coherence float64
	switch {
	case draft.Kind.Has(hre.KindFallback):
		coherence = s.policy.SafetyCoherence
	case len(draft.Domains) == 1:
		coherence = s.policy.SingleCoherence
	default:
		coherence = meanPairwiseCosine(draft.Domains)
	}

	intent := frame.Intent
	if draft.Kind.Has(hre.KindFallback) {
		intent /= 2
	}

	if draft.Inversion.FlipCoherence {
		coherence = -coherence
	}
	if draft.Inversion.FlipIntent {
		intent = -intent
	}
	return coherence, intent
}

func meanPairwiseCosine(domains []hre.Domain) float64 {
	var sum float64
	var n int
	for i := 0; i < len(domains); i++ {
		for j := i + 1; j < len(domains); j++ {
			sum += cosine(domains[i].Axis, domains[j].Axis)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// pTotal combines per-domain likelihoods. The fallback is only as likely as its weakest
// domain; other candidates use noisy-OR.
func (s *Scorer) pTotal(draft hre.Draft, frame Frame, violations int) float64 {
	if len(draft.Domains) == 0 {
		return 0
	}
	boosted := make([]float64, len(draft.Domains))
	misses := make([]float64, len(draft.Domains))
	for i, d := range draft.Domains {
		p := d.BaseP
		if frame.Relevant[d.Key] {
			p += (1 - p) * s.policy.RelevanceBoost
		}
		boosted[i] = p
		misses[i] = 1 - p
	}

	var p float64
	if draft.Kind.Has(hre.KindFallback) {
		p = floats.Min(boosted)
	} else {
		p = 1 - floats.Prod(misses)
	}
	p *= math.Pow(1-s.policy.ConstraintPenalty, float64(violations))
	return clamp01(p)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
