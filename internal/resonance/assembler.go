package resonance

import (
	"fmt"
	"slices"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Assembler turns a finished run into the response contract. It only formats values that
// were already computed; numbers use %.4g so signs are never lost.
type Assembler struct{}

func NewAssembler() *Assembler { return &Assembler{} }

// Finalize writes the human-readable text fields. Blocked runs get neither a recommendation
// nor a solution.
func (a *Assembler) Finalize(run *hre.AnalysisRun) {
	run.Recommendation, run.Solution = "", ""
	if !run.Gate.Accepted() {
		return
	}
	top, ok := run.Top()
	if !ok {
		return
	}
	msg := messagesFor(run.Lang)

	var stressLine string
	if st := run.StressTest; st != nil {
		explain := msg.StressUnstable
		if st.Status == hre.StressStable {
			explain = msg.StressStable
		}
		stressLine = fmt.Sprintf(msg.StressLine, st.GammaInv, explain)
	}
	run.Recommendation = fmt.Sprintf(msg.Recommendation,
		top.ID, top.Description, top.Gamma, top.PTotal, top.ResonancePoint, stressLine)
	run.Solution = fmt.Sprintf(msg.Solution,
		top.Description, top.PTotal, top.Amplitude, top.DFractal, top.ResonancePoint)
}

// BlockedMessage explains a blocked run from its gate signals.
func (a *Assembler) BlockedMessage(run *hre.AnalysisRun) string {
	msg := messagesFor(run.Lang)
	sig := run.Gate.Signals
	if sig == nil {
		return msg.BlockedEmpty
	}
	th := run.Gate.Thresholds
	return fmt.Sprintf(msg.BlockedSignals, sig.PTotal, sig.GammaFoam, th.MinPTotal, th.MinGammaFoam)
}

// Success renders the accepted prompt-form response.
func (a *Assembler) Success(run *hre.AnalysisRun) hre.SuccessResponse {
	top, _ := run.Top()
	return hre.SuccessResponse{
		Status:       hre.ResponseSuccess,
		Prompt:       run.Prompt,
		Lang:         run.Lang,
		Solution:     run.Solution,
		PTotal:       top.PTotal,
		TopAmplitude: run.TopAmplitude,
		DFractal:     run.DFractal,
		Domains:      slices.Clone(run.Domains),
	}
}

// Blocked renders the blocked response with whatever signals exist.
func (a *Assembler) Blocked(run *hre.AnalysisRun) hre.BlockedResponse {
	resp := hre.BlockedResponse{Status: hre.ResponseBlocked, Message: a.BlockedMessage(run)}
	if sig := run.Gate.Signals; sig != nil {
		foam, p := sig.GammaFoam, sig.PTotal
		resp.GammaFoam, resp.PTotal = &foam, &p
	}
	return resp
}

// Respond picks the prompt-form shape for the gate decision.
func (a *Assembler) Respond(run *hre.AnalysisRun) any {
	if run.Gate.Accepted() {
		return a.Success(run)
	}
	return a.Blocked(run)
}

// Detailed renders the structured, history-oriented response.
func (a *Assembler) Detailed(run *hre.AnalysisRun) hre.DetailedResponse {
	resp := hre.DetailedResponse{
		ID:           run.ID.String(),
		Status:       hre.ResponseSuccess,
		Task:         run.Task,
		Goal:         run.Goal,
		Constraints:  run.Constraints,
		Domains:      slices.Clone(run.Domains),
		Lang:         run.Lang,
		Hypotheses:   slices.Clone(run.Hypotheses),
		GateDecision: run.Gate.Decision,
		GateReason:   run.Gate.Reason,
		TopAmplitude: run.TopAmplitude,
		DFractal:     run.DFractal,
		Foam:         run.Foam,
		CreatedAt:    run.CreatedAt,
	}
	if resp.Hypotheses == nil {
		resp.Hypotheses = []hre.Hypothesis{}
	}
	if sig := run.Gate.Signals; sig != nil {
		foam, p := sig.GammaFoam, sig.PTotal
		resp.GammaFoam, resp.PTotal = &foam, &p
	}
	if run.Gate.Accepted() {
		resp.Recommendation = run.Recommendation
		resp.StressTest = run.StressTest
	} else {
		resp.Status = hre.ResponseBlocked
		resp.Message = a.BlockedMessage(run)
	}
	return resp
}
