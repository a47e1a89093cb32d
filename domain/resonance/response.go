package resonance

import "time"

// Response status literals of the HTTP contract.
const (
	ResponseSuccess = "success"
	ResponseBlocked = "blocked"
)

// SuccessResponse is the accepted-case shape of the prompt form.
type SuccessResponse struct {
	Status       string   `json:"status"`
	Prompt       string   `json:"prompt"`
	Lang         Lang     `json:"lang"`
	Solution     string   `json:"solution"`
	PTotal       float64  `json:"P_total"`
	TopAmplitude float64  `json:"top_amplitude"`
	DFractal     float64  `json:"D_fractal"`
	Domains      []string `json:"domains"`
}

// BlockedResponse carries the partial signals of a blocked run. Numeric fields are absent
// when nothing was scored.
type BlockedResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	GammaFoam *float64 `json:"Gamma_foam,omitempty"`
	PTotal    *float64 `json:"P_total,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
}

// DetailedResponse is the structured, history-oriented shape. Recommendation and stressTest
// are only present on accepted runs.
type DetailedResponse struct {
	ID          string   `json:"id,omitempty"`
	Status      string   `json:"status"`
	Message     string   `json:"message,omitempty"`
	Task        string   `json:"task"`
	Goal        string   `json:"goal"`
	Constraints string   `json:"constraints"`
	Domains     []string `json:"domains"`
	Lang        Lang     `json:"lang"`

	Hypotheses     []Hypothesis `json:"hypotheses"`
	Recommendation string       `json:"recommendation,omitempty"`
	StressTest     *StressTest  `json:"stressTest,omitempty"`

	GateDecision GateOutcome `json:"gate_decision"`
	GateReason   string      `json:"gate_reason,omitempty"`
	GammaFoam    *float64    `json:"Gamma_foam,omitempty"`
	PTotal       *float64    `json:"P_total,omitempty"`
	TopAmplitude float64     `json:"top_amplitude,omitempty"`
	DFractal     float64     `json:"D_fractal,omitempty"`
	Foam         FoamSummary `json:"foam"`
	CreatedAt    time.Time   `json:"createdAt"`
}
