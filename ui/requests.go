package ui

import (
	"strings"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// RunRequest is the body of POST /api/run-gra. A request with a prompt and no task is the
// free-text form; anything else is the structured form.
type RunRequest struct {
	Prompt      string   `json:"prompt" validate:"max=4000"`
	Task        string   `json:"task" validate:"max=4000"`
	Goal        string   `json:"goal" validate:"max=4000"`
	Constraints string   `json:"constraints" validate:"max=4000"`
	Domains     []string `json:"domains" validate:"max=32,dive,max=64"`
	Lang        string   `json:"lang" validate:"omitempty,oneof=ru en RU EN"`
}

// IsPrompt reports whether the free-text form was used
func (r RunRequest) IsPrompt() bool {
	return strings.TrimSpace(r.Prompt) != "" && strings.TrimSpace(r.Task) == ""
}

// Structured converts the body to an engine request
func (r RunRequest) Structured(lang hre.Lang) hre.Request {
	return hre.Request{
		Task:        r.Task,
		Goal:        r.Goal,
		Constraints: r.Constraints,
		Domains:     r.Domains,
		Lang:        lang,
	}
}

// HistoryQuery is the query string of GET /api/analyses
type HistoryQuery struct {
	Query  string `form:"q" validate:"max=200"`
	Domain string `form:"domain" validate:"max=64"`
	Limit  int    `form:"limit" validate:"gte=0"`
}
