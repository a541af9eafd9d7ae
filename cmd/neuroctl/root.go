package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "neuroctl",
	Short: "Dual-path decision arbiter and causal-connection learning runtime",
	Long: "neuroctl runs and inspects the neurograph decision core: a reflex/reasoning\n" +
		"arbiter over a population of typed, confidence-weighted causal connections.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
