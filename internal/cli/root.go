// Package cli wires the companion's commands: the serve daemon, pairing
// lifecycle, and one-shot safety/dispatch tools.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forgeai-companion",
	Short: "Local action companion for the ForgeAI Gateway",
	Long: "Executes file, shell, process, and desktop operations requested by a\n" +
		"remote Gateway, with every request classified against a local safety\n" +
		"policy first. Catastrophic operations are always blocked; risky ones\n" +
		"require explicit human confirmation.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
