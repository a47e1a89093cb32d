package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/ports"
)

// XLSXExporter writes a stored run as a workbook with a Summary and a Hypotheses sheet
type XLSXExporter struct{}

// NewXLSXExporter creates the workbook exporter
func NewXLSXExporter() ports.Exporter { return XLSXExporter{} }

func (XLSXExporter) Format() string { return "xlsx" }

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) FileExtension() string { return ".xlsx" }

var hypothesisHeader = []interface{}{
	"Rank", "ID", "Description", "Domains", "Kind", "pTotal", "gamma", "resonancePoint",
	"amplitude", "dFractal", "foamWeight", "violations", "status",
}

// Export renders the workbook into w
func (XLSXExporter) Export(w io.Writer, run *hre.AnalysisRun) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetHypotheses); err != nil {
		return fmt.Errorf("failed to create hypotheses sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, run, bold); err != nil {
		return err
	}
	if err := writeHypotheses(f, run, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, run *hre.AnalysisRun, style int) error {
	rows := [][2]interface{}{
		{"ID", run.ID.String()},
		{"Created", run.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		{"Task", run.Task},
		{"Goal", run.Goal},
		{"Constraints", run.Constraints},
		{"Domains", strings.Join(run.Domains, ", ")},
		{"Lang", string(run.Lang)},
		{"Gate", string(run.Gate.Decision)},
		{"Gate reason", run.Gate.Reason},
	}
	if sig := run.Gate.Signals; sig != nil {
		rows = append(rows,
			[2]interface{}{"Gamma_foam", sig.GammaFoam},
			[2]interface{}{"P_total", sig.PTotal},
		)
	}
	rows = append(rows,
		[2]interface{}{"D_fractal", run.DFractal},
		[2]interface{}{"top_amplitude", run.TopAmplitude},
		[2]interface{}{"Candidates", run.Foam.Candidates},
		[2]interface{}{"Excluded", run.Foam.Excluded},
	)
	if run.Gate.Accepted() {
		rows = append(rows, [2]interface{}{"Recommendation", run.Recommendation})
		if st := run.StressTest; st != nil {
			rows = append(rows,
				[2]interface{}{"Stress gammaInv", st.GammaInv},
				[2]interface{}{"Stress status", string(st.Status)},
			)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &[]interface{}{row[0], row[1]}); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	last := fmt.Sprintf("A%d", len(rows))
	if err := f.SetCellStyle(SheetSummary, "A1", last, style); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 80)
}

func writeHypotheses(f *excelize.File, run *hre.AnalysisRun, style int) error {
	if err := f.SetSheetRow(SheetHypotheses, "A1", &hypothesisHeader); err != nil {
		return fmt.Errorf("failed to write hypotheses header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(hypothesisHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetHypotheses, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for i, h := range run.Hypotheses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1, h.ID, h.Description, strings.Join(h.Domains, ", "), h.Kind.String(),
			h.PTotal, h.Gamma, h.ResonancePoint, h.Amplitude, h.DFractal, h.FoamWeight,
			h.Violations, string(h.Status),
		}
		if err := f.SetSheetRow(SheetHypotheses, cell, &row); err != nil {
			return fmt.Errorf("failed to write hypothesis %d: %w", h.ID, err)
		}
	}
	return f.SetColWidth(SheetHypotheses, "C", "C", 60)
}
