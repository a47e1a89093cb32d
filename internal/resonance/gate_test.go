package resonance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

func TestGate_Evaluate(t *testing.T) {
	gate := NewGate(DefaultPolicy().Gate)

	tests := []struct {
		name      string
		pTotal    float64
		gammaFoam float64
		want      hre.GateOutcome
	}{
		{"inclusive p bound", 0.8, 0.1, hre.GateAccepted},
		{"well above", 0.95, 0.4, hre.GateAccepted},
		{"just below p", 0.7999999, 0.4, hre.GateBlocked},
		{"zero foam", 0.9, 0, hre.GateBlocked},
		{"negative foam", 0.9, -0.3, hre.GateBlocked},
		{"both fail", 0.2, -0.3, hre.GateBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top := hre.Hypothesis{ID: 1, PTotal: tt.pTotal, Gamma: 0.5}
			d := gate.Evaluate(&top, tt.gammaFoam)
			assert.Equal(t, tt.want, d.Decision)
			require.NotNil(t, d.Signals)
			assert.Equal(t, tt.pTotal, d.Signals.PTotal)
			assert.Equal(t, tt.gammaFoam, d.Signals.GammaFoam)
			if tt.want == hre.GateBlocked {
				assert.NotEmpty(t, d.Reason)
			} else {
				assert.Empty(t, d.Reason)
			}
		})
	}
}

func TestGate_NothingScored(t *testing.T) {
	d := NewGate(DefaultPolicy().Gate).Evaluate(nil, 0)
	assert.Equal(t, hre.GateBlocked, d.Decision)
	assert.Nil(t, d.Signals)
	assert.Equal(t, 0.8, d.Thresholds.MinPTotal)
}

func TestGate_ThresholdsComeFromPolicy(t *testing.T) {
	gate := NewGate(GatePolicy{MinPTotal: 0.5, MinGammaFoam: 0.2})
	top := hre.Hypothesis{PTotal: 0.5}
	assert.False(t, gate.Evaluate(&top, 0.2).Accepted())
	assert.True(t, gate.Evaluate(&top, 0.21).Accepted())
}
