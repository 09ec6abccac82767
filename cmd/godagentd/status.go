package main

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/pidfile"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running and reachable",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pid, err := pidfile.Read(cfg.Server.PIDFile)
	if err != nil || !pidfile.IsRunning(pid) {
		fmt.Println("stopped")
		return nil
	}

	resp, err := callHealthStatus(cfg.Server.SocketPath)
	if err != nil {
		fmt.Printf("pid %d is running but socket is unreachable: %v\n", pid, err)
		return nil
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// callHealthStatus dials the daemon's socket directly and issues a
// single health.status request — no client abstraction exists yet
// beyond this one-shot use, so the framing is inlined rather than
// wired through internal/jsonrpc.Conn, which is written for the
// server side of the connection.
func callHealthStatus(socketPath string) (map[string]any, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: 1, Method: "health.status"}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, err
	}

	var resp jsonrpc.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result shape")
	}
	return result, nil
}
