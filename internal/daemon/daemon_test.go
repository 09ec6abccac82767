package daemon

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/logging"
	"github.com/txc0ld/godagent/internal/registry"
)

func newTestDaemon(t *testing.T) (*Daemon, *config.ServerConfig) {
	t.Helper()
	cfg := &config.ServerConfig{
		SocketPath:      filepath.Join(t.TempDir(), "test.sock"),
		MaxClients:      2,
		IdleTimeout:     config.Duration(5 * time.Second),
		ShutdownDrain:   config.Duration(500 * time.Millisecond),
		MaxMessageBytes: 1024,
	}
	logger, err := logging.NewLogger(logging.NewDefaultConfig())
	require.NoError(t, err)

	reg := registry.NewRegistry(nil)
	d := New(cfg, reg, logger, nil, nil)
	return d, cfg
}

func TestDaemon_StartAcceptsClientsAndRespondsToPing(t *testing.T) {
	d, cfg := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop(context.Background())

	conn, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"health.ping"}` + "\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"result":"pong"`)
}

func TestDaemon_RejectsClientsBeyondMaxClients(t *testing.T) {
	d, cfg := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop(context.Background())

	var conns []net.Conn
	for i := 0; i < cfg.MaxClients; i++ {
		c, err := net.Dial("unix", cfg.SocketPath)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	// Give the accept loop time to register the first MaxClients connections.
	require.Eventually(t, func() bool {
		return d.ConnectedClients() == cfg.MaxClients
	}, time.Second, 10*time.Millisecond)

	rejected, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer rejected.Close()

	buf := make([]byte, 1)
	rejected.SetReadDeadline(time.Now().Add(time.Second))
	_, err = rejected.Read(buf)
	assert.Error(t, err) // connection closed immediately by the daemon
}

func TestDaemon_StopIsIdempotentAndRemovesSocket(t *testing.T) {
	d, cfg := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))

	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	_, err := net.Dial("unix", cfg.SocketPath)
	assert.Error(t, err)
}

func TestDaemon_HealthStatusReportsConnectedClients(t *testing.T) {
	d, cfg := newTestDaemon(t)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop(context.Background())

	conn, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"health.status"}` + "\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"connected_clients"`)
	assert.Contains(t, line, `"state":"running"`)
}
