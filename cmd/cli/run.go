package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qqewq/harmonized-mind/adapters/excel"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/resonance"
)

func newRunCmd() *cobra.Command {
	var (
		task, goal, constraints, prompt, lang, format string
		domains                                       []string
		save                                          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one analysis",
		Long: `Run one analysis, either from a free-text prompt or from a structured request.

Examples:
  hre run --prompt "room-temperature superconductor" --lang en
  hre run --task "Найти сверхпроводник" --goal "Комнатная температура" --domain Физика --domain Математика`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedLang, ok := hre.ParseLang(lang)
			if !ok {
				return fmt.Errorf("unsupported --lang %q (use ru or en)", lang)
			}

			c, err := bootstrap(cmd.Context(), boolPtr(save))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			svc := c.AnalysisService
			out := cmd.OutOrStdout()

			if strings.TrimSpace(prompt) != "" && strings.TrimSpace(task) == "" {
				run, err := svc.AnalyzePrompt(cmd.Context(), prompt, parsedLang)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(out, resonance.NewAssembler().Respond(run))
				}
				return render(c.AnalysisService, out, run, format)
			}

			run, err := svc.Analyze(cmd.Context(), hre.Request{
				Task:        task,
				Goal:        goal,
				Constraints: constraints,
				Domains:     domains,
				Lang:        parsedLang,
			})
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(out, resonance.NewAssembler().Detailed(run))
			}
			return render(c.AnalysisService, out, run, format)
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Free-text prompt (domains are extracted from it)")
	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal description")
	cmd.Flags().StringVar(&constraints, "constraints", "", "Constraints text")
	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Domain name (repeatable or comma-separated)")
	cmd.Flags().StringVar(&lang, "lang", "ru", "Output language: ru or en")
	cmd.Flags().StringVar(&format, "format", "txt", "Output format: json, txt or md")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the run to the history store")

	return cmd
}

func newBatchCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "batch [file.xlsx|file.csv]",
		Short: "Run every request row of a spreadsheet",
		Long: `Run every request of a spreadsheet. The first row names the columns:
task, goal, domains (required), constraints and lang (optional). Domains are separated by ';' or ','.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(save))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			requests, err := excel.NewRequestReader(args[0], c.Logger).ReadRequests()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for i, req := range requests {
				run, err := c.AnalysisService.Analyze(cmd.Context(), req)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%3d  error     %v\n", i+1, err)
					continue
				}
				top, _ := run.Top()
				p := "-"
				if sig := run.Gate.Signals; sig != nil {
					p = fmt.Sprintf("%.3f", sig.PTotal)
				}
				fmt.Fprintf(out, "%3d  %-8s  P_total=%s  %s  %s\n", i+1, run.Gate.Decision, p, run.ID, top.Description)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(requests))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Persist the runs to the history store")
	return cmd
}
