package app

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qqewq/harmonized-mind/adapters/report"
	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/resonance"
	"github.com/qqewq/harmonized-mind/internal/testkit"
	"github.com/qqewq/harmonized-mind/ports"
)

// MockAnalysisRepository records calls and lets tests inject failures
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) SaveAnalysis(ctx context.Context, run *hre.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAnalysisRepository) GetAnalysis(ctx context.Context, id core.RunID) (*hre.AnalysisRun, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*hre.AnalysisRun)
	return run, args.Error(1)
}

func (m *MockAnalysisRepository) ListAnalyses(ctx context.Context, filter ports.AnalysisFilter) ([]*hre.AnalysisRun, error) {
	args := m.Called(ctx, filter)
	runs, _ := args.Get(0).([]*hre.AnalysisRun)
	return runs, args.Error(1)
}

func (m *MockAnalysisRepository) DeleteAnalysis(ctx context.Context, id core.RunID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEngine stands in for the resonance engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Run(ctx context.Context, req hre.Request) (*hre.AnalysisRun, error) {
	args := m.Called(ctx, req)
	run, _ := args.Get(0).(*hre.AnalysisRun)
	return run, args.Error(1)
}

func (m *MockEngine) RunPrompt(ctx context.Context, prompt string, lang hre.Lang) (*hre.AnalysisRun, error) {
	args := m.Called(ctx, prompt, lang)
	run, _ := args.Get(0).(*hre.AnalysisRun)
	return run, args.Error(1)
}

func newEngine(t *testing.T) *resonance.Engine {
	t.Helper()
	engine, err := resonance.NewEngine(resonance.DefaultPolicy(), nil)
	require.NoError(t, err)
	return engine
}

func exporters() []ports.Exporter {
	return []ports.Exporter{report.JSONExporter{}, report.TextExporter{}, report.MarkdownExporter{}}
}

func TestAnalysisService_AnalyzePersists(t *testing.T) {
	repo := testkit.NewInMemoryAnalysisRepository()
	svc := NewAnalysisService(newEngine(t), repo, exporters(), nil)
	ctx := context.Background()

	for _, sc := range testkit.Scenarios() {
		run, err := svc.Analyze(ctx, sc.Request)
		require.NoError(t, err, sc.Name)
		assert.Equal(t, sc.WantDecision, run.Gate.Decision, sc.Name)

		stored, err := svc.GetAnalysis(ctx, run.ID.String())
		require.NoError(t, err)
		assert.Equal(t, run.ID, stored.ID)
	}
	assert.Equal(t, len(testkit.Scenarios()), repo.Len())

	runs, err := svc.ListAnalyses(ctx, ports.AnalysisFilter{Domain: "medicine"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAnalysisService_AnalyzePrompt(t *testing.T) {
	repo := testkit.NewInMemoryAnalysisRepository()
	svc := NewAnalysisService(newEngine(t), repo, exporters(), nil)

	run, err := svc.AnalyzePrompt(context.Background(), "сверхпроводник при комнатной температуре", hre.LangRU)
	require.NoError(t, err)
	assert.Equal(t, "сверхпроводник при комнатной температуре", run.Prompt)
	assert.Equal(t, 1, repo.Len())
}

func TestAnalysisService_SaveFailureDoesNotChangeResponse(t *testing.T) {
	repo := new(MockAnalysisRepository)
	repo.On("SaveAnalysis", mock.Anything, mock.AnythingOfType("*resonance.AnalysisRun")).
		Return(stderrors.New("disk full"))

	engine := newEngine(t)
	svc := NewAnalysisService(engine, repo, exporters(), nil)
	sc := testkit.ScenarioCrossDomain()

	run, err := svc.Analyze(context.Background(), sc.Request)
	require.NoError(t, err)
	assert.Equal(t, hre.GateAccepted, run.Gate.Decision)
	assert.NotEmpty(t, run.Recommendation)
	repo.AssertExpectations(t)
}

func TestAnalysisService_SaveSurvivesCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := &hre.AnalysisRun{ID: core.NewRunID()}
	engine := new(MockEngine)
	engine.On("Run", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(run, nil)
	repo := new(MockAnalysisRepository)
	repo.On("SaveAnalysis", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), run).Return(nil)

	svc := NewAnalysisService(engine, repo, nil, nil)
	got, err := svc.Analyze(ctx, hre.Request{})
	require.NoError(t, err)
	assert.Same(t, run, got)
	repo.AssertExpectations(t)
}

func TestAnalysisService_EngineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"invalid input", hre.NewInvalidInput("task", "must not be empty"), errors.CodeInvalidInput},
		{"deadline", context.DeadlineExceeded, errors.CodeTimeout},
		{"other", stderrors.New("boom"), errors.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			engine.On("Run", mock.Anything, mock.Anything).Return(nil, tt.err)
			repo := new(MockAnalysisRepository)
			svc := NewAnalysisService(engine, repo, nil, nil)

			_, err := svc.Analyze(context.Background(), hre.Request{})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			assert.True(t, stderrors.Is(err, tt.err))
			repo.AssertNotCalled(t, "SaveAnalysis", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisService_InvalidInputFromEngine(t *testing.T) {
	svc := NewAnalysisService(newEngine(t), testkit.NewInMemoryAnalysisRepository(), nil, nil)
	_, err := svc.Analyze(context.Background(), hre.Request{Task: "t", Goal: "g", Domains: []string{"astrology"}})
	require.Error(t, err)
	assert.Equal(t, 400, errors.HTTPStatus(err))
	assert.True(t, stderrors.Is(err, core.ErrUnknownDomain))
}

func TestAnalysisService_HistoryLookups(t *testing.T) {
	repo := testkit.NewInMemoryAnalysisRepository()
	svc := NewAnalysisService(newEngine(t), repo, exporters(), nil)
	ctx := context.Background()

	_, err := svc.GetAnalysis(ctx, "not-a-uuid")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.GetAnalysis(ctx, core.NewRunID().String())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, 404, errors.HTTPStatus(err))

	run, err := svc.Analyze(ctx, testkit.ScenarioCrossDomain().Request)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAnalysis(ctx, run.ID.String()))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(svc.DeleteAnalysis(ctx, run.ID.String())))
}

func TestAnalysisService_HistoryDisabled(t *testing.T) {
	svc := NewAnalysisService(newEngine(t), nil, exporters(), nil)
	ctx := context.Background()
	assert.False(t, svc.HistoryEnabled())

	run, err := svc.Analyze(ctx, testkit.ScenarioCrossDomain().Request)
	require.NoError(t, err)

	_, err = svc.ListAnalyses(ctx, ports.AnalysisFilter{})
	assert.Equal(t, 503, errors.HTTPStatus(err))
	_, err = svc.GetAnalysis(ctx, run.ID.String())
	assert.Equal(t, 503, errors.HTTPStatus(err))
}

func TestAnalysisService_Export(t *testing.T) {
	repo := testkit.NewInMemoryAnalysisRepository()
	svc := NewAnalysisService(newEngine(t), repo, exporters(), nil)
	ctx := context.Background()
	assert.Equal(t, []string{"json", "md", "txt"}, svc.Formats())

	run, err := svc.Analyze(ctx, testkit.ScenarioCrossDomain().Request)
	require.NoError(t, err)

	res, err := svc.Export(ctx, run.ID.String(), "MD")
	require.NoError(t, err)
	assert.Equal(t, "analysis-"+run.ID.String()+".md", res.FileName)
	assert.Contains(t, string(res.Data), run.Task)

	res, err = svc.Export(ctx, run.ID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", res.ContentType)

	_, err = svc.Export(ctx, run.ID.String(), "pdf")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAnalysisService_ListPassesFilter(t *testing.T) {
	repo := new(MockAnalysisRepository)
	filter := ports.AnalysisFilter{Query: "x", Limit: 5}
	want := []*hre.AnalysisRun{{ID: core.NewRunID(), CreatedAt: time.Now()}}
	repo.On("ListAnalyses", mock.Anything, filter).Return(want, nil)

	svc := NewAnalysisService(new(MockEngine), repo, nil, nil)
	got, err := svc.ListAnalyses(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
