package embeddings

import (
	"context"
	"fmt"
)

// Provider is the interface for embedding providers, injectable into the
// memory engine's store/search operations so callers never need to know
// which backend produced a vector.
type Provider interface {
	// Embed generates an embedding for a single query string.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple document strings.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the embedding dimension this provider produces.
	Dimension() int
	// Close releases any resources held by the provider.
	Close() error
}

// ProviderConfig selects and parameterizes a Provider.
type ProviderConfig struct {
	// Provider selects the backend: "fastembed" or "hash" (default).
	Provider string
	// Model is the embedding model name, used by the fastembed provider.
	Model string
	// Dimension is the output dimension, used by the hash provider (and
	// validated against the model's native dimension for fastembed).
	Dimension int
	// CacheDir is the model cache directory for the fastembed provider.
	CacheDir string
}

// NewProvider constructs a Provider from cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "fastembed":
		p, err := NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Dimension > 0 && p.Dimension() != cfg.Dimension {
			_ = p.Close()
			return nil, fmt.Errorf("%w: model produces %d-dim vectors, want %d", ErrInvalidConfig, p.Dimension(), cfg.Dimension)
		}
		return p, nil
	case "hash", "":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 1536
		}
		return NewHashProvider(dim), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
