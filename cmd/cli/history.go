package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qqewq/harmonized-mind/app"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/ports"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored analyses",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryExportCmd(), newHistoryDeleteCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var filter ports.AnalysisFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(true))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runs, err := c.AnalysisService.ListAnalyses(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(out, "%s  %s  %-8s  %s\n",
					run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Gate.Decision, run.Task)
			}
			fmt.Fprintf(out, "%d analyses\n", len(runs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Match task or goal (case-insensitive)")
	cmd.Flags().StringVar(&filter.Domain, "domain", "", "Only runs that include this domain")
	cmd.Flags().IntVar(&filter.Limit, "limit", ports.DefaultHistoryLimit, "Maximum number of runs")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print one stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(true))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			run, err := c.AnalysisService.GetAnalysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(c.AnalysisService, cmd.OutOrStdout(), run, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "txt", "Output format: json, txt or md")
	return cmd
}

func newHistoryExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Export one stored analysis to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(true))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			res, err := c.AnalysisService.Export(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			if output == "" {
				output = res.FileName
			}
			if err := os.WriteFile(output, res.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(res.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json, txt, md, html or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default analysis-<id>.<ext>)")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(true))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if err := c.AnalysisService.DeleteAnalysis(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// render writes a run with one of the text exporters
func render(svc *app.AnalysisService, w io.Writer, run *hre.AnalysisRun, format string) error {
	exporter, ok := svc.Exporter(format)
	if !ok || exporter.Format() == "xlsx" {
		return fmt.Errorf("unsupported --format %q for terminal output", format)
	}
	res, err := svc.Render(run, exporter)
	if err != nil {
		return err
	}
	_, err = w.Write(res.Data)
	return err
}
