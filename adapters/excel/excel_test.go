package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/resonance"
	"github.com/qqewq/harmonized-mind/internal/testkit"
)

func runScenario(t *testing.T, sc testkit.Scenario) *hre.AnalysisRun {
	t.Helper()
	engine, err := resonance.NewEngine(resonance.DefaultPolicy(), nil)
	require.NoError(t, err)
	run, err := engine.Run(context.Background(), sc.Request)
	require.NoError(t, err)
	return run
}

func summaryValue(rows [][]string, key string) (string, bool) {
	for _, row := range rows {
		if len(row) >= 2 && row[0] == key {
			return row[1], true
		}
	}
	return "", false
}

func TestXLSXExporter_Accepted(t *testing.T) {
	run := runScenario(t, testkit.ScenarioCrossDomain())
	require.True(t, run.Gate.Accepted())

	var buf bytes.Buffer
	exp := NewXLSXExporter()
	require.NoError(t, exp.Export(&buf, run))
	assert.Equal(t, "xlsx", exp.Format())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetHypotheses}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	gate, ok := summaryValue(summary, "Gate")
	require.True(t, ok)
	assert.Equal(t, "accepted", gate)
	rec, ok := summaryValue(summary, "Recommendation")
	require.True(t, ok)
	assert.Equal(t, run.Recommendation, rec)

	hyps, err := f.GetRows(SheetHypotheses)
	require.NoError(t, err)
	require.Len(t, hyps, len(run.Hypotheses)+1)
	assert.Equal(t, "Rank", hyps[0][0])
	assert.Equal(t, strconv.Itoa(run.Hypotheses[0].ID), hyps[1][1])
	assert.Equal(t, run.Hypotheses[0].Description, hyps[1][2])
	assert.Equal(t, "optimal", hyps[1][12])
}

func TestXLSXExporter_BlockedOmitsRecommendation(t *testing.T) {
	run := runScenario(t, testkit.ScenarioContradiction())
	require.False(t, run.Gate.Accepted())

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter().Export(&buf, run))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	_, ok := summaryValue(summary, "Recommendation")
	assert.False(t, ok)
	_, ok = summaryValue(summary, "Stress status")
	assert.False(t, ok)
	gate, _ := summaryValue(summary, "Gate")
	assert.Equal(t, "blocked", gate)
}

func TestRequestReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	content := "Task,Goal,Constraints,Domains,Lang\n" +
		"Найти материал,Создать сверхпроводник,,Физика; Математика,\n" +
		",,,,\n" +
		"Cut emissions,Lower carbon output,no new taxes,\"climate, engineering\",en\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reqs, err := NewRequestReader(path, nil).ReadRequests()
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, []string{"Физика", "Математика"}, reqs[0].Domains)
	assert.Equal(t, hre.LangRU, reqs[0].Lang)
	assert.Equal(t, "no new taxes", reqs[1].Constraints)
	assert.Equal(t, []string{"climate", "engineering"}, reqs[1].Domains)
	assert.Equal(t, hre.LangEN, reqs[1].Lang)
}

func TestRequestReader_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"task", "goal", "domains"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Improve care", "Better outcomes", "medicine;biology"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	reqs, err := NewRequestReader(path, nil).ReadRequests()
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Improve care", reqs[0].Task)
	assert.Equal(t, []string{"medicine", "biology"}, reqs[0].Domains)
}

func TestRequestReader_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.csv")},
		{"header only", write("header.csv", "task,goal,domains\n")},
		{"missing column", write("nocol.csv", "task,goal\na,b\n")},
		{"missing value", write("noval.csv", "task,goal,domains\na,,physics\n")},
		{"bad lang", write("lang.csv", "task,goal,domains,lang\na,b,physics,de\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequestReader(tt.path, nil).ReadRequests()
			assert.Error(t, err)
		})
	}
}

func TestSplitDomains(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitDomains(" a; b ,c;;"))
	assert.Nil(t, SplitDomains("  "))
}
