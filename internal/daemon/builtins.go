package daemon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/txc0ld/godagent/internal/jsonrpc"
)

// registerBuiltins wires the always-available health.ping/health.status
// methods directly into the daemon's registry, ahead of whatever domain
// services the binary's main() goes on to register.
func (d *Daemon) registerBuiltins() {
	_ = d.registry.Register("health", "ping", d.handlePing)
	_ = d.registry.Register("health", "status", d.handleStatus)
}

func (d *Daemon) handlePing(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	return "pong", nil
}

// statusResponse is the health.status payload.
type statusResponse struct {
	State            string              `json:"state"`
	UptimeSeconds    float64             `json:"uptime_seconds"`
	ConnectedClients int                 `json:"connected_clients"`
	Services         map[string][]string `json:"services"`
}

func (d *Daemon) handleStatus(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	return statusResponse{
		State:            d.State().String(),
		UptimeSeconds:    time.Since(d.startedAt).Seconds(),
		ConnectedClients: d.ConnectedClients(),
		Services:         d.registry.List(),
	}, nil
}
