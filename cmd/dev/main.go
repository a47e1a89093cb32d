package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/qqewq/harmonized-mind/adapters/excel"
	"github.com/qqewq/harmonized-mind/adapters/report"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/resonance"
	"github.com/qqewq/harmonized-mind/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hre-dev",
		Short:        "Hybrid Resonance Engine development tools",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEngine() (*resonance.Engine, error) {
	return resonance.NewEngine(resonance.DefaultPolicy(), internal.NewNopLogger())
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run every scenario through the engine and every export format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newDeterminismTestCmd() *cobra.Command {
	var repeats int
	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Check that identical requests produce identical analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return testDeterminism(cmd.Context(), cmd.OutOrStdout(), repeats)
		},
	}
	cmd.Flags().IntVar(&repeats, "repeats", 5, "Runs per scenario")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a batch request file (xlsx or csv) built from the scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSample(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "requests.xlsx", "Output file path")
	return cmd
}

type smokeTest struct {
	name string
	fn   func(context.Context) error
}

func runSmokeTests(ctx context.Context, w io.Writer) error {
	engine, err := newEngine()
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	exporters := report.Exporters(excel.NewXLSXExporter())

	var tests []smokeTest
	for _, sc := range testkit.Scenarios() {
		sc := sc
		tests = append(tests, smokeTest{sc.Name, func(ctx context.Context) error {
			run, err := engine.Run(ctx, sc.Request)
			if err != nil {
				return err
			}
			if run.Gate.Decision != sc.WantDecision {
				return fmt.Errorf("gate %s, want %s", run.Gate.Decision, sc.WantDecision)
			}
			for format, exp := range exporters {
				var buf bytes.Buffer
				if err := exp.Export(&buf, run); err != nil {
					return fmt.Errorf("export %s: %w", format, err)
				}
				if buf.Len() == 0 {
					return fmt.Errorf("export %s: empty output", format)
				}
			}
			return nil
		}})
	}
	tests = append(tests, smokeTest{"prompt", func(ctx context.Context) error {
		_, err := engine.RunPrompt(ctx, "Найти сверхпроводник для медицины", hre.LangRU)
		return err
	}})

	passed := 0
	for _, test := range tests {
		fmt.Fprintf(w, "  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Fprintf(w, " FAILED: %v\n", err)
		} else {
			fmt.Fprintln(w, " PASSED")
			passed++
		}
	}

	fmt.Fprintf(w, "\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}
	return nil
}

func testDeterminism(ctx context.Context, w io.Writer, repeats int) error {
	if repeats < 2 {
		return fmt.Errorf("repeats must be at least 2")
	}
	engine, err := newEngine()
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	for _, sc := range testkit.Scenarios() {
		original, err := engine.Run(ctx, sc.Request)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		for i := 1; i < repeats; i++ {
			replay, err := engine.Run(ctx, sc.Request)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			if err := compareRuns(original, replay); err != nil {
				return fmt.Errorf("scenario %s, run %d: %w", sc.Name, i+1, err)
			}
		}
		fmt.Fprintf(w, "%-16s %s identical across %d runs\n", sc.Name, original.Fingerprint.Short(), repeats)
	}
	return nil
}

// compareRuns ignores the per-run identity fields.
func compareRuns(original, replay *hre.AnalysisRun) error {
	if original.Fingerprint != replay.Fingerprint {
		return fmt.Errorf("fingerprints differ")
	}
	diff := cmp.Diff(original, replay,
		cmpopts.IgnoreFields(hre.AnalysisRun{}, "ID", "CreatedAt"),
		cmpopts.IgnoreFields(hre.Hypothesis{}, "Draft"),
	)
	if diff != "" {
		return fmt.Errorf("results differ (-first +replay):\n%s", diff)
	}
	return nil
}

func writeSample(path string) error {
	header := []string{excel.ColumnTask, excel.ColumnGoal, excel.ColumnConstraints, excel.ColumnDomains, excel.ColumnLang}
	rows := [][]string{header}
	for _, sc := range testkit.Scenarios() {
		req := sc.Request
		rows = append(rows, []string{req.Task, req.Goal, req.Constraints, strings.Join(req.Domains, "; "), string(req.Lang)})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, rows)
	case ".xlsx":
		return writeXLSX(path, rows)
	default:
		return fmt.Errorf("unsupported sample format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Requests"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
