package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	appName = "sefr"
	version = "v0.3.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Train and evaluate SEFR linear classifiers on CSV data",
		Version: version,
		Long: `sefr trains a SEFR classifier in a single pass over a CSV file and
reports its accuracy on held-out data.

With a positive label it trains one binary classifier; otherwise it trains
one classifier per label and predicts by highest score (one-vs-rest).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(appName + " " + version)
		},
	})
	return rootCmd
}
