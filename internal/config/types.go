// Package config loads godagentd configuration from YAML + environment.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the root daemon configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Storage     StorageConfig     `koanf:"storage"`
	VectorIndex VectorIndexConfig `koanf:"vector_index"`
	Context     ContextConfig     `koanf:"context"`
	Feedback    FeedbackConfig    `koanf:"feedback"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig controls the Unix-socket daemon lifecycle.
type ServerConfig struct {
	SocketPath      string   `koanf:"socket_path"`
	PIDFile         string   `koanf:"pid_file"`
	MaxClients      int      `koanf:"max_clients"`
	IdleTimeout     Duration `koanf:"idle_timeout"`
	ShutdownDrain   Duration `koanf:"shutdown_drain"`
	MaxMessageBytes int      `koanf:"max_message_bytes"`
}

// StorageConfig controls where snapshots live on disk.
type StorageConfig struct {
	BaseDir       string `koanf:"base_dir"`
	VectorFile    string `koanf:"vector_file"`
	GraphDir      string `koanf:"graph_dir"`
	SessionDir    string `koanf:"session_dir"`
	FeedbackDir   string `koanf:"feedback_dir"`
}

// VectorIndexConfig controls ANN parameters and the canonical dimension.
type VectorIndexConfig struct {
	CanonicalDim     int     `koanf:"canonical_dim"`
	LegacyDim        int     `koanf:"legacy_dim"`
	BruteForceLimit  int     `koanf:"brute_force_limit"`
	HNSWLinks        int     `koanf:"hnsw_links"`
	HNSWEfConstruct  int     `koanf:"hnsw_ef_construct"`
	HNSWEfSearch     int     `koanf:"hnsw_ef_search"`
	NormEpsilon      float64 `koanf:"norm_epsilon"`
}

// ContextConfig controls the context composer defaults.
type ContextConfig struct {
	DefaultBudgetTokens int `koanf:"default_budget_tokens"`
	MaxPinnedTokens     int `koanf:"max_pinned_tokens"`
}

// FeedbackConfig controls the retry queue.
type FeedbackConfig struct {
	MaxEntries    int      `koanf:"max_entries"`
	MaxAttempts   int      `koanf:"max_attempts"`
	MaxAge        Duration `koanf:"max_age"`
	RetryInterval Duration `koanf:"retry_interval"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// LoggingConfig mirrors internal/logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
