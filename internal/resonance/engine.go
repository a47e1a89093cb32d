package resonance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/metrics"
)

var tracer = otel.Tracer("hre.engine")

// Engine runs the pipeline Generate -> Score -> Select -> Gate -> StressTest -> Assemble.
// Runs share no mutable state, so one Engine serves concurrent requests.
type Engine struct {
	catalog   *hre.Catalog
	policy    Policy
	generator *Generator
	scorer    *Scorer
	selector  *Selector
	gate      *Gate
	stress    *StressTester
	assembler *Assembler
	logger    *internal.Logger
	now       func() time.Time
}

// NewEngine validates the policy and wires the stages.
func NewEngine(policy Policy, logger *internal.Logger) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	catalog, err := policy.Catalog()
	if err != nil {
		return nil, err
	}
	inverter, err := NewInverter(policy.Stress.Inverter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	scorer := NewScorer(policy.Scorer)
	return &Engine{
		catalog:   catalog,
		policy:    policy,
		generator: NewGenerator(policy.Generator),
		scorer:    scorer,
		selector:  NewSelector(policy.Selector),
		gate:      NewGate(policy.Gate),
		stress:    NewStressTester(scorer, inverter),
		assembler: NewAssembler(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Catalog returns the active domain catalog.
func (e *Engine) Catalog() *hre.Catalog { return e.catalog }

func (e *Engine) Assembler() *Assembler { return e.assembler }

func (e *Engine) Policy() Policy { return e.policy }

// Prepare validates a request and resolves its domains in canonical order. Errors are
// *hre.InvalidInputError.
func (e *Engine) Prepare(req hre.Request) (hre.Request, []hre.Domain, error) {
	req.Task = strings.TrimSpace(req.Task)
	req.Goal = strings.TrimSpace(req.Goal)
	req.Constraints = strings.TrimSpace(req.Constraints)
	if req.Lang == "" {
		req.Lang = hre.LangRU
	}
	if req.Task == "" {
		return req, nil, hre.NewInvalidInput("task", "must not be empty")
	}
	if req.Goal == "" {
		return req, nil, hre.NewInvalidInput("goal", "must not be empty")
	}
	domains, display, err := e.catalog.Resolve(req.Domains)
	if err != nil {
		return req, nil, err
	}
	if len(domains) == 0 {
		return req, nil, hre.NewInvalidInput("domains", "at least one domain is required")
	}
	req.Domains = display
	return req, domains, nil
}

// RunPrompt maps a free-text prompt to domains and runs it.
func (e *Engine) RunPrompt(ctx context.Context, prompt string, lang hre.Lang) (*hre.AnalysisRun, error) {
	if strings.TrimSpace(prompt) == "" {
		metrics.RunsTotal.WithLabelValues("invalid").Inc()
		return nil, hre.NewInvalidInput("prompt", "must not be empty")
	}
	return e.Run(ctx, PromptRequest(prompt, lang, e.catalog))
}

// Run computes one AnalysisRun. A blocked gate is a normal result, not an error. Errors are
// input errors (*hre.InvalidInputError) or context cancellation between stages.
func (e *Engine) Run(ctx context.Context, req hre.Request) (*hre.AnalysisRun, error) {
	ctx, span := tracer.Start(ctx, "hre.Run")
	defer span.End()

	req, domains, err := e.Prepare(req)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("hre.domains", len(domains)))

	run := &hre.AnalysisRun{
		ID:          core.NewRunID(),
		Fingerprint: core.RequestFingerprint(req.Task, req.Goal, req.Constraints, keysOf(domains)),
		Task:        req.Task,
		Goal:        req.Goal,
		Constraints: req.Constraints,
		Domains:     req.Domains,
		DomainKeys:  keysOf(domains),
		Lang:        req.Lang,
		Prompt:      req.Prompt,
		CreatedAt:   e.now().UTC(),
	}
	frame := BuildFrame(req.Task, req.Goal, req.Constraints, e.catalog)

	var drafts []hre.Draft
	err = e.stage(ctx, "generate", func(ctx context.Context) error {
		var genErr error
		drafts, genErr = e.generator.Generate(ctx, req, domains, frame)
		return genErr
	})
	if err != nil {
		return nil, e.fail(err)
	}
	metrics.CandidatesGenerated.Observe(float64(len(drafts)))

	var scored []hre.Hypothesis
	var excluded int
	err = e.stage(ctx, "score", func(context.Context) error {
		scored, excluded = e.scoreAll(drafts, frame)
		return nil
	})
	if err != nil {
		return nil, e.fail(err)
	}

	var gammaFoam float64
	err = e.stage(ctx, "select", func(context.Context) error {
		weights := FoamWeights(scored)
		for i := range scored {
			scored[i].FoamWeight = weights[i]
		}
		gammaFoam = GammaFoam(scored, weights)
		run.Foam = Summarize(scored, excluded)
		run.Hypotheses = e.selector.Select(scored)
		return nil
	})
	if err != nil {
		return nil, e.fail(err)
	}

	err = e.stage(ctx, "gate", func(context.Context) error {
		var top *hre.Hypothesis
		if len(run.Hypotheses) > 0 {
			top = &run.Hypotheses[0]
			run.TopAmplitude = top.Amplitude
			run.DFractal = top.DFractal
		}
		run.Gate = e.gate.Evaluate(top, gammaFoam)
		return nil
	})
	if err != nil {
		return nil, e.fail(err)
	}

	if run.Gate.Accepted() {
		err = e.stage(ctx, "stress", func(context.Context) error {
			st, stErr := e.stress.Test(run.Hypotheses[0], frame)
			if stErr != nil {
				e.logger.Warn("[Engine] stress test skipped for run %s: %v", run.ID, stErr)
				return nil
			}
			run.StressTest = &st
			metrics.StressTotal.WithLabelValues(string(st.Status)).Inc()
			return nil
		})
		if err != nil {
			return nil, e.fail(err)
		}
	}

	if err := e.stage(ctx, "assemble", func(context.Context) error {
		e.assembler.Finalize(run)
		return nil
	}); err != nil {
		return nil, e.fail(err)
	}

	metrics.RunsTotal.WithLabelValues(string(run.Gate.Decision)).Inc()
	span.SetAttributes(
		attribute.String("hre.decision", string(run.Gate.Decision)),
		attribute.Int("hre.candidates", len(drafts)),
	)
	e.logger.Info("[Engine] run %s (%s): %d candidates, %d excluded, gate=%s %s",
		run.ID, run.Fingerprint.Short(), len(drafts), excluded, run.Gate.Decision, run.Gate.Reason)
	return run, nil
}

// scoreAll scores every draft. Degenerate drafts are excluded from ranking, not fatal.
func (e *Engine) scoreAll(drafts []hre.Draft, frame Frame) ([]hre.Hypothesis, int) {
	scored := make([]hre.Hypothesis, 0, len(drafts))
	var excluded int
	for _, draft := range drafts {
		s, err := e.scorer.Score(draft, frame)
		if err != nil {
			var degenerate *hre.DegenerateInputError
			if errors.As(err, &degenerate) {
				excluded++
				metrics.DegenerateCandidates.Inc()
				e.logger.Debug("[Engine] excluded candidate %d: %v", draft.ID, err)
				continue
			}
			// Score only fails on degenerate input; anything else is a bug worth seeing.
			e.logger.Error("[Engine] scoring candidate %d: %v", draft.ID, err)
			excluded++
			continue
		}
		scored = append(scored, hre.Hypothesis{
			ID:             draft.ID,
			Description:    draft.Description,
			PTotal:         s.PTotal,
			Gamma:          s.Gamma,
			ResonancePoint: s.ResonancePoint,
			Kind:           draft.Kind,
			Domains:        draft.DomainKeys(),
			Amplitude:      s.Amplitude,
			DFractal:       s.DFractal,
			Violations:     s.Violations,
			Draft:          draft,
		})
	}
	return scored, excluded
}

// stage checks for cancellation, then times and traces fn.
func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", name, err)
	}
	ctx, span := tracer.Start(ctx, "hre."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *Engine) fail(err error) error {
	metrics.RunsTotal.WithLabelValues("error").Inc()
	e.logger.Warn("[Engine] run aborted: %v", err)
	return err
}

func keysOf(domains []hre.Domain) []string {
	keys := make([]string, len(domains))
	for i, d := range domains {
		keys[i] = d.Key
	}
	return keys
}
