package resonance

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// FoamWeights is softmax(ω_res) over the whole scored set, shifted by the max for stability.
func FoamWeights(hs []hre.Hypothesis) []float64 {
	if len(hs) == 0 {
		return nil
	}
	omegas := make([]float64, len(hs))
	for i, h := range hs {
		omegas[i] = h.ResonancePoint
	}
	peak := floats.Max(omegas)
	weights := make([]float64, len(hs))
	for i, w := range omegas {
		weights[i] = math.Exp(w - peak)
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights
}

// GammaFoam is the foam-weighted mean of gamma across every scored candidate.
func GammaFoam(hs []hre.Hypothesis, weights []float64) float64 {
	if len(hs) == 0 {
		return 0
	}
	gammas := make([]float64, len(hs))
	for i, h := range hs {
		gammas[i] = h.Gamma
	}
	return gstat.Mean(gammas, weights)
}

// Summarize describes the scored set. Summary statistics are informational and never gate.
func Summarize(hs []hre.Hypothesis, excluded int) hre.FoamSummary {
	summary := hre.FoamSummary{Candidates: len(hs), Excluded: excluded}
	if len(hs) == 0 {
		return summary
	}
	gammas := make(stats.Float64Data, len(hs))
	ps := make(stats.Float64Data, len(hs))
	omegas := make(stats.Float64Data, len(hs))
	for i, h := range hs {
		gammas[i], ps[i], omegas[i] = h.Gamma, h.PTotal, h.ResonancePoint
	}
	summary.MeanGamma, _ = gammas.Mean()
	summary.MedianGamma, _ = gammas.Median()
	summary.StdDevGamma, _ = gammas.StandardDeviation()
	summary.MeanPTotal, _ = ps.Mean()
	summary.MaxResonance, _ = omegas.Max()
	return summary
}
