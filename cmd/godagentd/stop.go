package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/pidfile"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal a running daemon to shut down gracefully",
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := pidfile.SendSignal(cfg.Server.PIDFile, syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping daemon: %w", err)
	}
	fmt.Println("sent SIGTERM")
	return nil
}
