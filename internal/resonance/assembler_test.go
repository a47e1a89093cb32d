package resonance

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/testkit"
)

func TestAssembler_AcceptedShapes(t *testing.T) {
	engine := newTestEngine(t)
	req := testkit.ScenarioCrossDomain().Request
	req.Lang = hre.LangEN
	run, err := engine.Run(context.Background(), req)
	require.NoError(t, err)
	require.True(t, run.Gate.Accepted())

	asm := engine.Assembler()
	success, ok := asm.Respond(run).(hre.SuccessResponse)
	require.True(t, ok)
	assert.Equal(t, "success", success.Status)
	assert.Equal(t, run.Hypotheses[0].PTotal, success.PTotal)
	assert.Contains(t, success.Solution, "Cross-domain fusion")

	detailed := asm.Detailed(run)
	assert.Equal(t, "success", detailed.Status)
	assert.Equal(t, run.Recommendation, detailed.Recommendation)
	require.NotNil(t, detailed.StressTest)
	assert.Equal(t, hre.GateAccepted, detailed.GateDecision)

	raw, err := json.Marshal(detailed)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"hypotheses", "recommendation", "stressTest", "P_total", "Gamma_foam"} {
		assert.Contains(t, generic, key)
	}
	first := generic["hypotheses"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "description", "pTotal", "gamma", "resonancePoint", "status"} {
		assert.Contains(t, first, key)
	}
}

func TestAssembler_BlockedHidesSolution(t *testing.T) {
	engine := newTestEngine(t)
	run, err := engine.Run(context.Background(), testkit.ScenarioContradiction().Request)
	require.NoError(t, err)
	require.False(t, run.Gate.Accepted())

	blocked, ok := engine.Assembler().Respond(run).(hre.BlockedResponse)
	require.True(t, ok)
	assert.Equal(t, "blocked", blocked.Status)
	require.NotNil(t, blocked.PTotal)
	require.NotNil(t, blocked.GammaFoam)
	assert.LessOrEqual(t, *blocked.GammaFoam, 0.0)
	assert.Contains(t, blocked.Message, "заблокировано")

	raw, err := json.Marshal(engine.Assembler().Detailed(run))
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.NotContains(t, generic, "recommendation")
	assert.NotContains(t, generic, "solution")
	assert.NotContains(t, generic, "stressTest")
	assert.Equal(t, "blocked", generic["status"])
}

func TestAssembler_NumbersKeepSign(t *testing.T) {
	run := &hre.AnalysisRun{
		Lang: hre.LangEN,
		Gate: hre.GateDecision{
			Decision:   hre.GateBlocked,
			Signals:    &hre.GateSignals{GammaFoam: -0.00012, PTotal: 0.81},
			Thresholds: hre.GateThresholds{MinPTotal: 0.8},
		},
	}
	msg := NewAssembler().BlockedMessage(run)
	assert.Contains(t, msg, "-0.00012")

	run.Gate.Signals = nil
	assert.Equal(t, messagesFor(hre.LangEN).BlockedEmpty, NewAssembler().BlockedMessage(run))
	assert.Nil(t, NewAssembler().Blocked(run).PTotal)
}
