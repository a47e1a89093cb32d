// Package report renders stored analysis runs for download. Exporters only format fields
// already on the run; nothing is recomputed.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/ports"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// JSONExporter writes the run as indented JSON
type JSONExporter struct{}

func (JSONExporter) Format() string        { return "json" }
func (JSONExporter) ContentType() string   { return "application/json; charset=utf-8" }
func (JSONExporter) FileExtension() string { return ".json" }

func (JSONExporter) Export(w io.Writer, run *hre.AnalysisRun) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(run)
}

// TextExporter writes a plain-text report
type TextExporter struct{}

func (TextExporter) Format() string        { return "txt" }
func (TextExporter) ContentType() string   { return "text/plain; charset=utf-8" }
func (TextExporter) FileExtension() string { return ".txt" }

func (TextExporter) Export(w io.Writer, run *hre.AnalysisRun) error {
	l := labelsFor(run.Lang)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", l.Title, run.ID)
	fmt.Fprintf(&b, "%s: %s\n", l.Created, run.CreatedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "%s: %s\n", l.Task, run.Task)
	fmt.Fprintf(&b, "%s: %s\n", l.Goal, run.Goal)
	fmt.Fprintf(&b, "%s: %s\n", l.Constraints, orNone(run.Constraints, l))
	fmt.Fprintf(&b, "%s: %s\n", l.Domains, strings.Join(run.Domains, ", "))
	fmt.Fprintf(&b, "%s: %s\n", l.Gate, gateLine(run))
	if run.Gate.Reason != "" {
		fmt.Fprintf(&b, "%s: %s\n", l.Reason, run.Gate.Reason)
	}

	fmt.Fprintf(&b, "\n%s:\n", l.Hypotheses)
	for i, h := range run.Hypotheses {
		fmt.Fprintf(&b, "%d. [%s] #%d %s\n   pTotal=%.4g gamma=%.4g resonancePoint=%.4g\n",
			i+1, h.Status, h.ID, h.Description, h.PTotal, h.Gamma, h.ResonancePoint)
	}

	if run.Gate.Accepted() {
		fmt.Fprintf(&b, "\n%s:\n%s\n", l.Recommendation, run.Recommendation)
		if st := run.StressTest; st != nil {
			fmt.Fprintf(&b, "\n%s: gammaInv=%.4g (%s)\n", l.Stress, st.GammaInv, st.Status)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MarkdownExporter writes a Markdown report
type MarkdownExporter struct{}

func (MarkdownExporter) Format() string        { return "md" }
func (MarkdownExporter) ContentType() string   { return "text/markdown; charset=utf-8" }
func (MarkdownExporter) FileExtension() string { return ".md" }

func (MarkdownExporter) Export(w io.Writer, run *hre.AnalysisRun) error {
	_, err := w.Write(renderMarkdown(run))
	return err
}

// HTMLExporter renders the Markdown report into a standalone HTML page
type HTMLExporter struct{}

func (HTMLExporter) Format() string        { return "html" }
func (HTMLExporter) ContentType() string   { return "text/html; charset=utf-8" }
func (HTMLExporter) FileExtension() string { return ".html" }

func (HTMLExporter) Export(w io.Writer, run *hre.AnalysisRun) error {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: labelsFor(run.Lang).Title + " " + run.ID.String(),
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank | html.Safelink | html.SkipHTML,
	})
	_, err := w.Write(markdown.ToHTML(renderMarkdown(run), p, renderer))
	return err
}

func renderMarkdown(run *hre.AnalysisRun) []byte {
	l := labelsFor(run.Lang)
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", l.Title)
	fmt.Fprintf(&b, "- **ID:** `%s`\n", run.ID)
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Created, run.CreatedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Task, escapeMarkdown(run.Task))
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Goal, escapeMarkdown(run.Goal))
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Constraints, escapeMarkdown(orNone(run.Constraints, l)))
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Domains, escapeMarkdown(strings.Join(run.Domains, ", ")))
	fmt.Fprintf(&b, "- **%s:** %s\n", l.Gate, gateLine(run))
	if run.Gate.Reason != "" {
		fmt.Fprintf(&b, "- **%s:** %s\n", l.Reason, escapeMarkdown(run.Gate.Reason))
	}

	fmt.Fprintf(&b, "\n## %s\n\n", l.Hypotheses)
	b.WriteString("| # | ID | Description | pTotal | gamma | resonancePoint | status |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for i, h := range run.Hypotheses {
		fmt.Fprintf(&b, "| %d | %d | %s | %.4g | %.4g | %.4g | %s |\n",
			i+1, h.ID, escapeCell(h.Description), h.PTotal, h.Gamma, h.ResonancePoint, h.Status)
	}

	fmt.Fprintf(&b, "\n## %s\n\n", l.Foam)
	fmt.Fprintf(&b, "- candidates: %d (excluded %d)\n", run.Foam.Candidates, run.Foam.Excluded)
	fmt.Fprintf(&b, "- mean gamma: %.4g, median %.4g, stddev %.4g\n",
		run.Foam.MeanGamma, run.Foam.MedianGamma, run.Foam.StdDevGamma)
	fmt.Fprintf(&b, "- D_fractal: %.4g, top_amplitude: %.4g\n", run.DFractal, run.TopAmplitude)

	if run.Gate.Accepted() {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", l.Recommendation, escapeMarkdown(run.Recommendation))
		if st := run.StressTest; st != nil {
			fmt.Fprintf(&b, "\n## %s\n\n- gammaInv: %.4g\n- status: **%s**\n", l.Stress, st.GammaInv, st.Status)
		}
	}
	return b.Bytes()
}

func gateLine(run *hre.AnalysisRun) string {
	if sig := run.Gate.Signals; sig != nil {
		return fmt.Sprintf("%s (Gamma_foam=%.4g, P_total=%.4g)", run.Gate.Decision, sig.GammaFoam, sig.PTotal)
	}
	return string(run.Gate.Decision)
}

func orNone(s string, l labels) string {
	if strings.TrimSpace(s) == "" {
		return l.None
	}
	return s
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "<", "&lt;", ">", "&gt;",
	"[", `\[`, "]", `\]`,
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeMarkdown(strings.ReplaceAll(s, "\n", " ")), "|", `\|`)
}

// Exporters returns every built-in text exporter keyed by format
func Exporters(extra ...ports.Exporter) map[string]ports.Exporter {
	all := append([]ports.Exporter{JSONExporter{}, TextExporter{}, MarkdownExporter{}, HTMLExporter{}}, extra...)
	out := make(map[string]ports.Exporter, len(all))
	for _, e := range all {
		out[e.Format()] = e
	}
	return out
}
