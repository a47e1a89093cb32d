package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/metrics"
	"github.com/qqewq/harmonized-mind/ports"
)

// historyWriteTimeout bounds a save that outlives the request context.
const historyWriteTimeout = 5 * time.Second

// AnalysisService runs the engine and keeps the analysis history. The engine never sees the
// history store; persistence happens here after the run is assembled.
type AnalysisService struct {
	engine    ports.ResonanceEngine
	history   ports.AnalysisRepository
	exporters map[string]ports.Exporter
	logger    *internal.Logger
}

// ExportResult is a rendered download
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// NewAnalysisService creates the service. history may be nil when history is disabled.
func NewAnalysisService(engine ports.ResonanceEngine, history ports.AnalysisRepository, exporters []ports.Exporter, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	byFormat := make(map[string]ports.Exporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Format()] = e
	}
	return &AnalysisService{
		engine:    engine,
		history:   history,
		exporters: byFormat,
		logger:    logger,
	}
}

// HistoryEnabled reports whether runs are persisted
func (s *AnalysisService) HistoryEnabled() bool { return s.history != nil }

// Formats lists the export formats, sorted
func (s *AnalysisService) Formats() []string {
	formats := make([]string, 0, len(s.exporters))
	for f := range s.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Analyze runs a structured request and records it
func (s *AnalysisService) Analyze(ctx context.Context, req hre.Request) (*hre.AnalysisRun, error) {
	run, err := s.engine.Run(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	s.persist(ctx, run)
	return run, nil
}

// AnalyzePrompt runs a free-text prompt and records it
func (s *AnalysisService) AnalyzePrompt(ctx context.Context, prompt string, lang hre.Lang) (*hre.AnalysisRun, error) {
	run, err := s.engine.RunPrompt(ctx, prompt, lang)
	if err != nil {
		return nil, classify(err)
	}
	s.persist(ctx, run)
	return run, nil
}

// persist stores a run. Failures are logged and counted; they never change the response.
func (s *AnalysisService) persist(ctx context.Context, run *hre.AnalysisRun) {
	if s.history == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.history.SaveAnalysis(saveCtx, run); err != nil {
		metrics.HistoryErrors.WithLabelValues("save").Inc()
		s.logger.Warn("[History] failed to save analysis %s: %v", run.ID, err)
		return
	}
	s.logger.Debug("[History] saved analysis %s (%s)", run.ID, run.Gate.Decision)
}

// ListAnalyses returns stored runs newest first
func (s *AnalysisService) ListAnalyses(ctx context.Context, filter ports.AnalysisFilter) ([]*hre.AnalysisRun, error) {
	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	runs, err := s.history.ListAnalyses(ctx, filter)
	if err != nil {
		metrics.HistoryErrors.WithLabelValues("list").Inc()
		return nil, errors.Wrap(err, "failed to list analyses")
	}
	return runs, nil
}

// GetAnalysis loads one stored run
func (s *AnalysisService) GetAnalysis(ctx context.Context, rawID string) (*hre.AnalysisRun, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	run, err := s.history.GetAnalysis(ctx, id)
	if err != nil {
		if !core.IsNotFoundError(err) {
			metrics.HistoryErrors.WithLabelValues("get").Inc()
		}
		return nil, errors.Wrapf(err, "failed to load analysis %s", id)
	}
	return run, nil
}

// DeleteAnalysis removes one stored run
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.history.DeleteAnalysis(ctx, id); err != nil {
		if !core.IsNotFoundError(err) {
			metrics.HistoryErrors.WithLabelValues("delete").Inc()
		}
		return errors.Wrapf(err, "failed to delete analysis %s", id)
	}
	s.logger.Info("[History] deleted analysis %s", id)
	return nil
}

// Export renders a stored run in the requested format
func (s *AnalysisService) Export(ctx context.Context, rawID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported export format %q (supported: %s)",
			format, strings.Join(s.Formats(), ", ")))
	}

	run, err := s.GetAnalysis(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return s.Render(run, exporter)
}

// Render formats a run that is already in hand
func (s *AnalysisService) Render(run *hre.AnalysisRun, exporter ports.Exporter) (*ExportResult, error) {
	var buf bytes.Buffer
	if err := exporter.Export(&buf, run); err != nil {
		return nil, errors.Wrapf(err, "failed to export analysis %s as %s", run.ID, exporter.Format())
	}
	return &ExportResult{
		FileName:    "analysis-" + run.ID.String() + exporter.FileExtension(),
		ContentType: exporter.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Exporter looks up an exporter by format
func (s *AnalysisService) Exporter(format string) (ports.Exporter, bool) {
	e, ok := s.exporters[strings.ToLower(format)]
	return e, ok
}

func (s *AnalysisService) requireHistory() error {
	if s.history == nil {
		return errors.UpstreamUnavailable("analysis history", nil)
	}
	return nil
}

func (s *AnalysisService) parseID(raw string) (core.RunID, error) {
	if err := s.requireHistory(); err != nil {
		return "", err
	}
	id, err := core.ParseRunID(raw)
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	return id, nil
}

// classify gives engine failures an AppError code without hiding the original error
func classify(err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.WithCode(errors.CodeTimeout, err)
	case stderrors.Is(err, context.Canceled):
		return errors.WithCode(errors.CodeTimeout, err)
	case core.IsInvalidInputError(err):
		return errors.Wrap(err, "invalid analysis request")
	default:
		return errors.Wrap(err, "analysis failed")
	}
}
