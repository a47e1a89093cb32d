// Package resonance holds the data model of the Hybrid Resonance Engine: the fixed domain
// catalog, candidate drafts, scored hypotheses, gate and stress-test outcomes, and the
// AnalysisRun that bundles them. Nothing here computes scores.
package resonance

import (
	"strings"
	"time"

	"github.com/qqewq/harmonized-mind/domain/core"
)

// Status is the rank-derived label of a retained hypothesis.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusSuboptimal Status = "suboptimal"
	StatusRejected   Status = "rejected"
)

// Lang selects the message catalog for human-readable text. Status literals are never localized.
type Lang string

const (
	LangRU Lang = "ru"
	LangEN Lang = "en"
)

// ParseLang maps an optional request field to a Lang; empty means Russian.
func ParseLang(s string) (Lang, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ru":
		return LangRU, true
	case "en":
		return LangEN, true
	default:
		return "", false
	}
}

// CandidateKind records which construction rule produced a draft. It is a bit set because
// de-duplication can fold two rules into one candidate (with two domains the pairwise fusion
// and the all-domain synthesis are the same domain set).
type CandidateKind uint8

const (
	KindPairwise CandidateKind = 1 << iota
	KindSingle
	KindSynthesis
	KindFallback
)

var kindNames = []struct {
	kind CandidateKind
	name string
}{
	{KindPairwise, "pairwise"},
	{KindSingle, "single"},
	{KindSynthesis, "synthesis"},
	{KindFallback, "fallback"},
}

// Has reports whether every bit of o is set in k.
func (k CandidateKind) Has(o CandidateKind) bool { return o != 0 && k&o == o }

func (k CandidateKind) String() string {
	var parts []string
	for _, kn := range kindNames {
		if k.Has(kn.kind) {
			parts = append(parts, kn.name)
		}
	}
	return strings.Join(parts, "+")
}

// MarshalText renders the kind as "pairwise+synthesis" style text.
func (k CandidateKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses the MarshalText form; unknown names are ignored.
func (k *CandidateKind) UnmarshalText(b []byte) error {
	*k = 0
	for _, part := range strings.Split(string(b), "+") {
		for _, kn := range kindNames {
			if kn.name == part {
				*k |= kn.kind
			}
		}
	}
	return nil
}

// Request is the structured engine input.
type Request struct {
	Task        string
	Goal        string
	Constraints string
	// Domains keeps the caller's names and order for display; scoring never depends on order.
	Domains []string
	Lang    Lang
	// Prompt is set when the request came from the free-text form.
	Prompt string
}

// Inversion selects which alignment terms the scorer negates. The zero value means the
// original framing.
type Inversion struct {
	FlipCoherence bool
	FlipIntent    bool
}

// Draft is a generated candidate whose scoring fields are still pending.
type Draft struct {
	// ID is the 1-based generation order, stable for identical input.
	ID          int
	Kind        CandidateKind
	Domains     []Domain
	Description string
	// Key identifies the candidate for de-duplication.
	Key       string
	Inversion Inversion
}

// DomainKeys returns the catalog keys of the contributing domains.
func (d Draft) DomainKeys() []string {
	keys := make([]string, len(d.Domains))
	for i, dom := range d.Domains {
		keys[i] = dom.Key
	}
	return keys
}

// Hypothesis is a scored candidate. Status is assigned once by the selector.
type Hypothesis struct {
	ID             int           `json:"id"`
	Description    string        `json:"description"`
	PTotal         float64       `json:"pTotal"`
	Gamma          float64       `json:"gamma"`
	ResonancePoint float64       `json:"resonancePoint"`
	Status         Status        `json:"status"`
	Kind           CandidateKind `json:"kind"`
	Domains        []string      `json:"domains"`
	Amplitude      float64       `json:"amplitude"`
	DFractal       float64       `json:"dFractal"`
	FoamWeight     float64       `json:"foamWeight"`
	Violations     int           `json:"violations"`

	Draft Draft `json:"-"`
}

// StressStatus is the qualitative result of the robustness check.
type StressStatus string

const (
	StressStable   StressStatus = "stable"
	StressUnstable StressStatus = "unstable"
)

// StressTest is informational; it never changes the gate decision.
type StressTest struct {
	HypothesisID int          `json:"hypothesisId"`
	GammaInv     float64      `json:"gammaInv"`
	Status       StressStatus `json:"status"`
	Inverter     string       `json:"inverter,omitempty"`
}

// GateOutcome is the single authoritative release decision.
type GateOutcome string

const (
	GateAccepted GateOutcome = "accepted"
	GateBlocked  GateOutcome = "blocked"
)

// GateSignals are the aggregate inputs the gate looked at. Nil when no candidate survived scoring.
type GateSignals struct {
	GammaFoam float64 `json:"gammaFoam"`
	PTotal    float64 `json:"pTotal"`
}

// GateThresholds are the policy constants active at decision time.
type GateThresholds struct {
	MinPTotal    float64 `json:"minPTotal"`
	MinGammaFoam float64 `json:"minGammaFoam"`
}

// GateDecision is the output of the ethical gate.
type GateDecision struct {
	Decision   GateOutcome    `json:"decision"`
	Reason     string         `json:"reason,omitempty"`
	Signals    *GateSignals   `json:"signals,omitempty"`
	Thresholds GateThresholds `json:"thresholds"`
}

// Accepted reports whether a solution may leave the engine.
func (g GateDecision) Accepted() bool { return g.Decision == GateAccepted }

// FoamSummary describes the whole scored candidate set, not only the retained top-K.
type FoamSummary struct {
	Candidates   int     `json:"candidates"`
	Excluded     int     `json:"excluded"`
	MeanGamma    float64 `json:"meanGamma"`
	MedianGamma  float64 `json:"medianGamma"`
	StdDevGamma  float64 `json:"stdDevGamma"`
	MeanPTotal   float64 `json:"meanPTotal"`
	MaxResonance float64 `json:"maxResonance"`
}

// AnalysisRun is the immutable result of one request.
type AnalysisRun struct {
	ID          core.RunID `json:"id"`
	Fingerprint core.Hash  `json:"fingerprint"`
	Task        string     `json:"task"`
	Goal        string     `json:"goal"`
	Constraints string     `json:"constraints"`
	Domains     []string   `json:"domains"`
	DomainKeys  []string   `json:"domainKeys"`
	Lang        Lang       `json:"lang"`
	Prompt      string     `json:"prompt,omitempty"`

	Hypotheses     []Hypothesis `json:"hypotheses"`
	Recommendation string       `json:"recommendation,omitempty"`
	Solution       string       `json:"solution,omitempty"`
	StressTest     *StressTest  `json:"stressTest,omitempty"`
	Gate           GateDecision `json:"gate"`

	DFractal     float64     `json:"dFractal"`
	TopAmplitude float64     `json:"topAmplitude"`
	Foam         FoamSummary `json:"foam"`

	CreatedAt time.Time `json:"createdAt"`
}

// Top returns the rank-1 hypothesis, if any.
func (r *AnalysisRun) Top() (Hypothesis, bool) {
	if r == nil || len(r.Hypotheses) == 0 {
		return Hypothesis{}, false
	}
	return r.Hypotheses[0], true
}
