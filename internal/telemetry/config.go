// Package telemetry wires OpenTelemetry tracing and Prometheus metrics for
// the daemon. Unlike a networked service, this daemon has no collector to
// export to by default: tracing stays in-process (spans are sampled and
// recorded so a debug handler could dump them, but are not shipped over
// OTLP), while metrics are collected in an in-memory Prometheus registry
// that no listener serves.
package telemetry

import (
	"fmt"
)

// Config controls tracing sampling and service identity.
type Config struct {
	ServiceName    string         `koanf:"service_name"`
	ServiceVersion string         `koanf:"service_version"`
	Sampling       SamplingConfig `koanf:"sampling"`
}

// SamplingConfig controls trace sampling behavior.
type SamplingConfig struct {
	Rate float64 `koanf:"rate"` // 0.0-1.0, default 1.0
}

// NewDefaultConfig returns sane defaults for a single-node daemon.
func NewDefaultConfig() *Config {
	return &Config{
		ServiceName:    "godagentd",
		ServiceVersion: "0.1.0",
		Sampling: SamplingConfig{
			Rate: 1.0,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("sampling.rate must be between 0 and 1")
	}
	return nil
}
