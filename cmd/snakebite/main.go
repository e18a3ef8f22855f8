package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "snakebite",
	Short: "Validate and aggregate community-submitted syntax-error probe results",
	Long: `snakebite coordinates community-submitted measurement data about
AI-generated Python syntax-error rates.

Contributors drop JSONL files at results/<handle>/<date>/<model>.jsonl;
"validate" gates them against the submission schema and "aggregate" rolls
the accepted corpus into the published summary under public/.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(exitCode(err))
	}
}
