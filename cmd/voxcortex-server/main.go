// Command voxcortex-server runs the conversation orchestrator over
// WebSocket connections.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/voxcortex/cmd/voxcortex-server/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
