package ports

import (
	"context"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// ResonanceEngine computes analysis runs
type ResonanceEngine interface {
	Run(ctx context.Context, req hre.Request) (*hre.AnalysisRun, error)
	RunPrompt(ctx context.Context, prompt string, lang hre.Lang) (*hre.AnalysisRun, error)
}
