package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/txc0ld/godagent/internal/bootstrap"
	"github.com/txc0ld/godagent/internal/config"
	"github.com/txc0ld/godagent/internal/daemon"
	"github.com/txc0ld/godagent/internal/logging"
	"github.com/txc0ld/godagent/internal/pidfile"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/rpcservices"
	"github.com/txc0ld/godagent/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the foreground",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return run(ctx)
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.New(telemetry.NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	metrics := telemetry.NewMetrics()

	components, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("assembling components: %w", err)
	}

	reg := registry.NewRegistry(metrics)
	if err := registerServices(reg, components); err != nil {
		return fmt.Errorf("registering services: %w", err)
	}

	d := daemon.New(&cfg.Server, reg, logger, metrics, nil)
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	if err := pidfile.Write(cfg.Server.PIDFile); err != nil {
		logger.Warn(ctx, "failed to write pid file", zap.Error(err))
	}
	defer func() { _ = pidfile.Remove(cfg.Server.PIDFile) }()

	worker := components.FeedbackWorker(components.MemorySubmitter(), cfg.Feedback)
	go worker.Run(ctx)

	configWatcher, err := config.WatchFile(configPath, func(_ *config.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config file changed but failed to reload", zap.Error(err))
			return
		}
		logger.Info(ctx, "config file changed on disk; restart the daemon to apply it")
	})
	if err != nil {
		logger.Warn(ctx, "config file watcher not started", zap.Error(err))
	} else {
		defer func() { _ = configWatcher.Close() }()
	}

	logger.Info(ctx, "godagentd ready",
		zap.String("socket_path", cfg.Server.SocketPath),
		zap.Int("max_clients", cfg.Server.MaxClients))

	<-ctx.Done()

	logger.Info(ctx, "shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDrain.Duration())
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		logger.Error(ctx, "error stopping daemon", zap.Error(err))
	}

	if err := components.Persist(); err != nil {
		logger.Error(ctx, "error persisting state", zap.Error(err))
		return err
	}
	return nil
}

func registerServices(reg *registry.Registry, c *bootstrap.Components) error {
	if err := rpcservices.RegisterMemory(reg, c.Memory); err != nil {
		return err
	}
	if err := rpcservices.RegisterEpisode(reg, c.Episodes); err != nil {
		return err
	}
	if err := rpcservices.RegisterHyperedge(reg, c.Graph); err != nil {
		return err
	}
	if err := rpcservices.RegisterContext(reg, &rpcservices.Context{
		Window:   c.Window,
		Pins:     c.Pins,
		DAG:      c.DAG,
		Tokens:   c.Tokens,
		Composer: c.Composer,
	}); err != nil {
		return err
	}
	if err := rpcservices.RegisterSession(reg, c.Sessions); err != nil {
		return err
	}
	if err := rpcservices.RegisterWorkflow(reg, c.Workflow); err != nil {
		return err
	}
	return rpcservices.RegisterFeedback(reg, c.Feedback)
}

func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}
	return logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Fields: map[string]string{"service": "godagentd"},
	})
}
