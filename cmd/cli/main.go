package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hre",
		Short:         "Hybrid Resonance Engine CLI: run analyses, browse history, serve the API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newDemoCmd(),
		newDomainsCmd(),
	)
	return rootCmd
}
