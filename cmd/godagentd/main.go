// Command godagentd runs the persistent agent-memory daemon: a
// Unix-socket JSON-RPC 2.0 server multiplexing the vector index,
// hypergraph store, and context composition engine behind a single
// top-level coordinator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "godagentd",
	Short:   "Persistent agent-memory daemon",
	Long:    `godagentd serves memory, episode, hyperedge, and context-composition RPCs over a Unix socket.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to ~/.config/godagent/config.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}
