// Package testkit holds canonical requests and an in-memory history store shared by tests
// and the CLI demo.
package testkit

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/ports"
)

// Scenario is a named request with the outcome it is expected to produce.
type Scenario struct {
	Name         string
	Description  string
	Request      hre.Request
	WantDecision hre.GateOutcome
}

// ScenarioCrossDomain is two aligned domains with a benefit-seeking goal and no constraints.
func ScenarioCrossDomain() Scenario {
	return Scenario{
		Name:        "cross-domain",
		Description: "mathematics and physics searching for a room-temperature superconductor",
		Request: hre.Request{
			Task:    "Найти новые сверхпроводящие материалы с высокой критической температурой",
			Goal:    "Создать материал, работающий при комнатной температуре",
			Domains: []string{"Математика", "Физика"},
			Lang:    hre.LangRU,
		},
		WantDecision: hre.GateAccepted,
	}
}

// ScenarioContradiction is a single domain whose constraint negates the goal.
func ScenarioContradiction() Scenario {
	return Scenario{
		Name:        "contradiction",
		Description: "a constraint that forbids exactly what the goal asks for",
		Request: hre.Request{
			Task:        "Повысить доступность лечения в сельских районах",
			Goal:        "Повысить доступность лечения",
			Constraints: "Нельзя повышать доступность лечения",
			Domains:     []string{"Медицина"},
			Lang:        hre.LangRU,
		},
		WantDecision: hre.GateBlocked,
	}
}

// ScenarioExcludedDomain names a domain in a negated constraint.
func ScenarioExcludedDomain() Scenario {
	return Scenario{
		Name:        "excluded-domain",
		Description: "three domains, one of them ruled out by a constraint",
		Request: hre.Request{
			Task:        "Develop a safer treatment protocol for chronic disease",
			Goal:        "Improve patient outcomes",
			Constraints: "without chemistry; budget is limited",
			Domains:     []string{"medicine", "biology", "chemistry"},
			Lang:        hre.LangEN,
		},
		WantDecision: hre.GateAccepted,
	}
}

// Scenarios returns every canonical scenario.
func Scenarios() []Scenario {
	return []Scenario{ScenarioCrossDomain(), ScenarioContradiction(), ScenarioExcludedDomain()}
}

// InMemoryAnalysisRepository implements ports.AnalysisRepository with a map
type InMemoryAnalysisRepository struct {
	runs map[core.RunID]*hre.AnalysisRun
	mu   sync.RWMutex
}

func NewInMemoryAnalysisRepository() *InMemoryAnalysisRepository {
	return &InMemoryAnalysisRepository{runs: make(map[core.RunID]*hre.AnalysisRun)}
}

func (s *InMemoryAnalysisRepository) SaveAnalysis(ctx context.Context, run *hre.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	cp.Hypotheses = slices.Clone(run.Hypotheses)
	s.runs[run.ID] = &cp
	return nil
}

func (s *InMemoryAnalysisRepository) GetAnalysis(ctx context.Context, id core.RunID) (*hre.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("analysis", id.String())
	}
	cp := *run
	return &cp, nil
}

func (s *InMemoryAnalysisRepository) ListAnalyses(ctx context.Context, filter ports.AnalysisFilter) ([]*hre.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*hre.AnalysisRun
	for _, run := range s.runs {
		if filter.Matches(run) {
			cp := *run
			results = append(results, &cp)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})
	if limit := filter.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryAnalysisRepository) DeleteAnalysis(ctx context.Context, id core.RunID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return core.NewNotFoundError("analysis", id.String())
	}
	delete(s.runs, id)
	return nil
}

// Len returns the number of stored runs.
func (s *InMemoryAnalysisRepository) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

var _ ports.AnalysisRepository = (*InMemoryAnalysisRepository)(nil)
