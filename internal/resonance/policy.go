package resonance

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Policy holds every tunable constant of the engine. Stages read thresholds from here only,
// so a policy change is a single YAML edit.
type Policy struct {
	Gate      GatePolicy      `yaml:"gate"`
	Selector  SelectorPolicy  `yaml:"selector"`
	Scorer    ScorerPolicy    `yaml:"scorer"`
	Generator GeneratorPolicy `yaml:"generator"`
	Stress    StressPolicy    `yaml:"stress"`
	// Domains replaces the built-in catalog when non-empty.
	Domains []hre.Domain `yaml:"domains" validate:"omitempty,dive"`
}

// GatePolicy is the release threshold pair.
type GatePolicy struct {
	MinPTotal    float64 `yaml:"min_p_total" validate:"gte=0,lte=1"`
	MinGammaFoam float64 `yaml:"min_gamma_foam"`
}

type SelectorPolicy struct {
	TopK int `yaml:"top_k" validate:"gte=1,lte=50"`
}

// ScorerPolicy shapes the closed-form scoring model.
type ScorerPolicy struct {
	GammaMax          float64 `yaml:"gamma_max" validate:"gt=0"`
	GammaSteepness    float64 `yaml:"gamma_steepness" validate:"gt=0"`
	DBase             float64 `yaml:"d_base" validate:"gte=1"`
	ConstraintPenalty float64 `yaml:"constraint_penalty" validate:"gte=0,lt=1"`
	RelevanceBoost    float64 `yaml:"relevance_boost" validate:"gte=0,lte=1"`
	SingleCoherence   float64 `yaml:"single_coherence" validate:"gte=-1,lte=1"`
	SafetyCoherence   float64 `yaml:"safety_coherence" validate:"gte=-1,lte=1"`
	ViolationMargin   float64 `yaml:"violation_margin" validate:"gte=0"`
	CoherenceWeight   float64 `yaml:"coherence_weight" validate:"gte=0,lte=1"`
	IntentWeight      float64 `yaml:"intent_weight" validate:"gte=0,lte=1"`
}

type GeneratorPolicy struct {
	ParallelThreshold int `yaml:"parallel_threshold" validate:"gte=2"`
	MaxWorkers        int `yaml:"max_workers" validate:"gte=1,lte=64"`
}

type StressPolicy struct {
	Inverter string `yaml:"inverter" validate:"oneof=sign_flip goal_negation"`
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		Gate:     GatePolicy{MinPTotal: 0.8, MinGammaFoam: 0.0},
		Selector: SelectorPolicy{TopK: 7},
		Scorer: ScorerPolicy{
			GammaMax:          1.0,
			GammaSteepness:    2.0,
			DBase:             2.5,
			ConstraintPenalty: 0.25,
			RelevanceBoost:    0.3,
			SingleCoherence:   0.6,
			SafetyCoherence:   0.5,
			ViolationMargin:   0.05,
			CoherenceWeight:   0.7,
			IntentWeight:      0.3,
		},
		Generator: GeneratorPolicy{ParallelThreshold: 6, MaxWorkers: 4},
		Stress:    StressPolicy{Inverter: InverterSignFlip},
	}
}

var policyValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and that the domain overrides form a usable catalog.
func (p Policy) Validate() error {
	if err := policyValidator.Struct(p); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if len(p.Domains) > 0 {
		if _, err := hre.NewCatalog(p.Domains); err != nil {
			return fmt.Errorf("invalid policy domains: %w", err)
		}
	}
	return nil
}

// Catalog returns the domain catalog the policy selects.
func (p Policy) Catalog() (*hre.Catalog, error) {
	if len(p.Domains) == 0 {
		return hre.DefaultCatalog(), nil
	}
	return hre.NewCatalog(p.Domains)
}
