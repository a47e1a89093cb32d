package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func export(t *testing.T, format string, run *hre.AnalysisRun) string {
	t.Helper()
	exp, ok := Exporters()[format]
	require.True(t, ok, "format %s", format)
	var buf bytes.Buffer
	require.NoError(t, exp.Export(&buf, run))
	return buf.String()
}

func TestExporters_Registry(t *testing.T) {
	all := Exporters()
	for _, format := range []string{"json", "txt", "md", "html"} {
		exp, ok := all[format]
		require.True(t, ok, format)
		assert.Equal(t, format, exp.Format())
		assert.Equal(t, "."+format, exp.FileExtension())
		assert.NotEmpty(t, exp.ContentType())
	}
}

func TestJSONExporter_RoundTrips(t *testing.T) {
	run := runScenario(t, testkit.ScenarioCrossDomain())
	out := export(t, "json", run)

	var decoded hre.AnalysisRun
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, run.Recommendation, decoded.Recommendation)
	require.Len(t, decoded.Hypotheses, len(run.Hypotheses))
	assert.Equal(t, run.Hypotheses[0].Gamma, decoded.Hypotheses[0].Gamma)
}

func TestTextExporter(t *testing.T) {
	accepted := runScenario(t, testkit.ScenarioCrossDomain())
	out := export(t, "txt", accepted)
	assert.Contains(t, out, "Задача: "+accepted.Task)
	assert.Contains(t, out, "Рекомендация:")
	assert.Contains(t, out, "[optimal]")
	assert.Contains(t, out, "Ограничения: нет")

	blocked := runScenario(t, testkit.ScenarioContradiction())
	out = export(t, "txt", blocked)
	assert.Contains(t, out, "blocked")
	assert.NotContains(t, out, "Рекомендация:")
	assert.NotContains(t, out, "Стресс-тест")
}

func TestMarkdownExporter(t *testing.T) {
	run := runScenario(t, testkit.ScenarioExcludedDomain())
	out := export(t, "md", run)

	assert.True(t, strings.HasPrefix(out, "# HRE analysis\n"))
	assert.Contains(t, out, "## Hypotheses")
	assert.Contains(t, out, "| # | ID | Description |")
	lines := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "| ") && !strings.HasPrefix(line, "| #") {
			lines++
		}
	}
	assert.Equal(t, len(run.Hypotheses), lines)
}

func TestHTMLExporter(t *testing.T) {
	run := runScenario(t, testkit.ScenarioCrossDomain())
	out := export(t, "html", run)

	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<title>Анализ ГРА "+run.ID.String()+"</title>")
}

func TestHTMLExporter_UserTextCannotInjectLinks(t *testing.T) {
	run := runScenario(t, testkit.ScenarioCrossDomain())
	run.Task = "[click me](javascript:alert(document.cookie))"
	run.Goal = "<script>alert(1)</script>"

	out := export(t, "html", run)
	assert.NotContains(t, out, `href="javascript:`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "click me")

	md := export(t, "md", run)
	assert.Contains(t, md, `\[click me\](javascript:alert(document.cookie))`)
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, `a \| b \*c\* line`, escapeCell("a | b *c*\nline"))
}
