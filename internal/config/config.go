package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default returns a Config populated with hardcoded defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	baseDir := filepath.Join(home, ".agentdb")

	return &Config{
		Server: ServerConfig{
			SocketPath:      "/tmp/godagent-db.sock",
			PIDFile:         "/tmp/godagent-daemon.pid",
			MaxClients:      10,
			IdleTimeout:     Duration(30 * time.Second),
			ShutdownDrain:   Duration(5 * time.Second),
			MaxMessageBytes: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			BaseDir:     baseDir,
			VectorFile:  filepath.Join(baseDir, "vectors.bin"),
			GraphDir:    filepath.Join(baseDir, "graphs"),
			SessionDir:  filepath.Join(baseDir, ".phd-sessions"),
			FeedbackDir: baseDir,
		},
		VectorIndex: VectorIndexConfig{
			CanonicalDim:    1536,
			LegacyDim:       768,
			BruteForceLimit: 1000,
			HNSWLinks:       16,
			HNSWEfConstruct: 200,
			HNSWEfSearch:    50,
			NormEpsilon:     1e-6,
		},
		Context: ContextConfig{
			DefaultBudgetTokens: 8000,
			MaxPinnedTokens:     2000,
		},
		Feedback: FeedbackConfig{
			MaxEntries:    100,
			MaxAttempts:   3,
			MaxAge:        Duration(24 * time.Hour),
			RetryInterval: Duration(30 * time.Second),
		},
		Embeddings: EmbeddingsConfig{
			Provider: "hash",
			Model:    "BAAI/bge-small-en-v1.5",
			CacheDir: filepath.Join(baseDir, "models"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: true,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.MaxClients <= 0 {
		return fmt.Errorf("server.max_clients must be > 0")
	}
	if c.Server.MaxMessageBytes <= 0 {
		return fmt.Errorf("server.max_message_bytes must be > 0")
	}
	if c.Server.IdleTimeout.Duration() <= 0 {
		return fmt.Errorf("server.idle_timeout must be > 0")
	}
	if c.Server.SocketPath == "" {
		return fmt.Errorf("server.socket_path must not be empty")
	}
	if c.VectorIndex.CanonicalDim <= 0 {
		return fmt.Errorf("vector_index.canonical_dim must be > 0")
	}
	if c.VectorIndex.LegacyDim <= 0 || c.VectorIndex.LegacyDim >= c.VectorIndex.CanonicalDim {
		return fmt.Errorf("vector_index.legacy_dim must be > 0 and < canonical_dim")
	}
	if c.VectorIndex.BruteForceLimit <= 0 {
		return fmt.Errorf("vector_index.brute_force_limit must be > 0")
	}
	if c.Context.DefaultBudgetTokens <= 0 {
		return fmt.Errorf("context.default_budget_tokens must be > 0")
	}
	if c.Context.MaxPinnedTokens < 0 {
		return fmt.Errorf("context.max_pinned_tokens must be >= 0")
	}
	if c.Feedback.MaxEntries <= 0 {
		return fmt.Errorf("feedback.max_entries must be > 0")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}

// EnsureStorageDirs creates the configured storage directories.
func (c *Config) EnsureStorageDirs() error {
	dirs := []string{c.Storage.BaseDir, c.Storage.GraphDir, c.Storage.SessionDir, c.Storage.FeedbackDir}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}
