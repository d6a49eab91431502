package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voxcortex-server",
	Short: "Runs the conversation orchestrator over WebSocket connections",
	Long: `voxcortex-server accepts WebSocket connections and runs one
orchestrator session per connection, coordinating speech-to-text, a
streaming language model, and text-to-speech with barge-in-aware
interruption handling.

Examples:
  voxcortex-server serve --addr :8080
  voxcortex-server serve --config ./voxcortex.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
