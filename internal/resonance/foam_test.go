package resonance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

func TestFoamWeights(t *testing.T) {
	hs := []hre.Hypothesis{
		{ID: 1, ResonancePoint: 1.0, Gamma: 0.5},
		{ID: 2, ResonancePoint: 1.0, Gamma: -0.5},
		{ID: 3, ResonancePoint: 3.0, Gamma: 0.2},
	}
	w := FoamWeights(hs)
	require.Len(t, w, 3)

	var sum float64
	for _, x := range w {
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, w[0], w[1], 1e-15)
	assert.Greater(t, w[2], w[0])

	// equal weights on the first two cancel, so the foam leans on the third
	assert.InDelta(t, 0.2*w[2], GammaFoam(hs, w), 1e-12)
	assert.Nil(t, FoamWeights(nil))
	assert.Equal(t, 0.0, GammaFoam(nil, nil))
}

func TestSummarize(t *testing.T) {
	hs := []hre.Hypothesis{
		{Gamma: 0.1, PTotal: 0.5, ResonancePoint: 0.4},
		{Gamma: 0.3, PTotal: 0.7, ResonancePoint: 0.9},
		{Gamma: 0.8, PTotal: 0.9, ResonancePoint: 0.6},
	}
	s := Summarize(hs, 2)
	assert.Equal(t, 3, s.Candidates)
	assert.Equal(t, 2, s.Excluded)
	assert.InDelta(t, 0.4, s.MeanGamma, 1e-12)
	assert.InDelta(t, 0.3, s.MedianGamma, 1e-12)
	assert.InDelta(t, 0.7, s.MeanPTotal, 1e-12)
	assert.Equal(t, 0.9, s.MaxResonance)
	assert.Greater(t, s.StdDevGamma, 0.0)

	empty := Summarize(nil, 4)
	assert.Equal(t, hre.FoamSummary{Excluded: 4}, empty)
}
