// Command godagent-ucmd runs the unified consistency-and-maintenance
// daemon: a second, lower-traffic Unix-socket server that shares
// godagentd's storage components but exposes the recovery and DESC
// retrieval surface instead of the hot read/write path, so a stuck
// consistency check never competes with live agent traffic on the same
// socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/txc0ld/godagent/internal/bootstrap"
	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/daemon"
	"github.com/txc0ld/godagent/internal/logging"
	"github.com/txc0ld/godagent/internal/pidfile"
	"github.com/txc0ld/godagent/internal/recovery"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/rpcservices"
	"github.com/txc0ld/godagent/internal/telemetry"
)

const (
	defaultSocketPath = "/tmp/godagent-ucm.sock"
	defaultPIDFile    = "/tmp/godagent-ucmd.pid"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ~/.config/godagent/config.yaml)")
	socketPath := flag.String("socket", defaultSocketPath, "Unix socket to bind")
	pidFile := flag.String("pidfile", defaultPIDFile, "PID file path")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configPath, *socketPath, *pidFile); err != nil {
		log.Fatalf("godagent-ucmd: %v", err)
	}
}

func run(ctx context.Context, configPath, socketPath, pidFilePath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Server.SocketPath = socketPath
	cfg.Server.PIDFile = pidFilePath

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}
	logger, err := logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Fields: map[string]string{"service": "godagent-ucmd"},
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics := telemetry.NewMetrics()

	components, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("assembling components: %w", err)
	}

	checker := recovery.NewChecker(components.Graph, components.Vectors, components.Embedder)
	descRetriever := recovery.NewDescRetriever(components.Memory)

	reg := registry.NewRegistry(metrics)
	if err := rpcservices.RegisterRecovery(reg, checker, descRetriever); err != nil {
		return fmt.Errorf("registering recovery services: %w", err)
	}

	d := daemon.New(&cfg.Server, reg, logger, metrics, nil)
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	if err := pidfile.Write(cfg.Server.PIDFile); err != nil {
		logger.Warn(ctx, "failed to write pid file", zap.Error(err))
	}
	defer func() { _ = pidfile.Remove(cfg.Server.PIDFile) }()

	logger.Info(ctx, "godagent-ucmd ready", zap.String("socket_path", cfg.Server.SocketPath))

	<-ctx.Done()

	logger.Info(ctx, "shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDrain.Duration())
	defer stopCancel()
	return d.Stop(stopCtx)
}
