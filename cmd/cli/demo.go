package main

import (
	"fmt"

	"github.com/spf13/cobra"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/testkit"
)

func newDemoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the canonical scenarios and check their gate decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(false))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			out := cmd.OutOrStdout()
			mismatches := 0
			for _, sc := range testkit.Scenarios() {
				run, err := c.AnalysisService.Analyze(cmd.Context(), sc.Request)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}
				mark := "ok"
				if run.Gate.Decision != sc.WantDecision {
					mark = "MISMATCH"
					mismatches++
				}
				fmt.Fprintf(out, "[%s] %-16s %-8s (want %s) %s\n", mark, sc.Name, run.Gate.Decision, sc.WantDecision, sc.Description)
				if verbose {
					printHypotheses(cmd, run)
				}
			}
			if mismatches > 0 {
				return fmt.Errorf("%d scenario(s) did not match", mismatches)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print ranked hypotheses")
	return cmd
}

func printHypotheses(cmd *cobra.Command, run *hre.AnalysisRun) {
	out := cmd.OutOrStdout()
	for i, h := range run.Hypotheses {
		fmt.Fprintf(out, "    %d. %-10s γ=%+.4f P=%.4f ω=%.4f  %s\n",
			i+1, h.Status, h.Gamma, h.PTotal, h.ResonancePoint, h.Description)
	}
	if st := run.StressTest; st != nil {
		fmt.Fprintf(out, "    stress: γ_inv=%+.4f %s\n", st.GammaInv, st.Status)
	}
}

func newDomainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List the domain catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), boolPtr(false))
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			out := cmd.OutOrStdout()
			for _, d := range c.Engine.Catalog().All() {
				fmt.Fprintf(out, "%-12s %-12s %-12s P=%.2f\n", d.Key, d.Name, d.NameEN, d.BaseP)
			}
			return nil
		},
	}
}
