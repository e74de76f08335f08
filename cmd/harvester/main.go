package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Search the web and batch the results into text or PDF volumes",
	Long: `harvester queries public search engines, downloads the linked pages
and PDFs, extracts and cleans their text, and batches everything that
passes quality checks into numbered volume files.

Run without a subcommand it behaves like "harvester run" and reads its
settings from INPUT_QUERY, INPUT_TARGET, TASKS, MAX_FILES and related
environment variables.`,
	SilenceUsage: true,
	RunE:         runHarvest,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)

	addHarvestFlags(rootCmd)
	pflag.CommandLine.AddFlagSet(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
