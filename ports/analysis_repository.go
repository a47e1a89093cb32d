package ports

import (
	"context"
	"strings"

	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// History list bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// AnalysisFilter narrows a history listing
type AnalysisFilter struct {
	// Query matches task or goal, case-insensitive substring
	Query string
	// Domain keeps runs that include this domain name
	Domain string
	Limit  int
}

// EffectiveLimit clamps Limit to [1, MaxHistoryLimit], defaulting to DefaultHistoryLimit.
func (f AnalysisFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultHistoryLimit
	case f.Limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return f.Limit
	}
}

// AnalysisRepository persists finished analysis runs
type AnalysisRepository interface {
	// SaveAnalysis stores a run; saving the same ID twice replaces it
	SaveAnalysis(ctx context.Context, run *hre.AnalysisRun) error

	// GetAnalysis loads one run; missing runs return an error matching core.ErrNotFound
	GetAnalysis(ctx context.Context, id core.RunID) (*hre.AnalysisRun, error)

	// ListAnalyses returns runs newest first
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*hre.AnalysisRun, error)

	// DeleteAnalysis removes a run; missing runs return an error matching core.ErrNotFound
	DeleteAnalysis(ctx context.Context, id core.RunID) error
}

// Matches applies the query and domain parts of the filter to one run. Domain compares
// against both display names and catalog keys.
func (f AnalysisFilter) Matches(run *hre.AnalysisRun) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(run.Task), q) && !strings.Contains(strings.ToLower(run.Goal), q) {
			return false
		}
	}
	if d := strings.TrimSpace(f.Domain); d != "" {
		for _, name := range append(append([]string{}, run.Domains...), run.DomainKeys...) {
			if strings.EqualFold(name, d) {
				return true
			}
		}
		return false
	}
	return true
}
