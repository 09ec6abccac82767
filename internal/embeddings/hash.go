package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"github.com/txc0ld/godagent/internal/vectorindex"
)

// HashProvider is a deterministic, dependency-free embedding provider: it
// derives a vector from a text's SHA-256 digest rather than running a
// model, so the daemon has a usable default with no model download and
// tests get reproducible embeddings. It satisfies the same normalized-
// unit-vector invariant a real model's output would.
type HashProvider struct {
	dimension int
}

// NewHashProvider constructs a HashProvider producing vectors of the
// given dimension.
func NewHashProvider(dimension int) *HashProvider {
	return &HashProvider{dimension: dimension}
}

// Embed derives a unit vector from text's digest.
func (h *HashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	return h.vectorFor(text), nil
}

// EmbedBatch derives a unit vector per text.
func (h *HashProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", ErrEmptyInput, i)
		}
		out[i] = h.vectorFor(t)
	}
	return out, nil
}

// Dimension returns the configured output dimension.
func (h *HashProvider) Dimension() int {
	return h.dimension
}

// Close is a no-op; HashProvider holds no resources.
func (h *HashProvider) Close() error {
	return nil
}

// vectorFor seeds a PRNG from text's SHA-256 digest and draws
// h.dimension Gaussian-ish values from it, then L2-normalizes — giving a
// vector that is deterministic per text, roughly uniform on the unit
// sphere, and satisfies the index's normalization invariant.
func (h *HashProvider) vectorFor(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.LittleEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	raw := make([]float32, h.dimension)
	for i := range raw {
		raw[i] = float32(rng.NormFloat64())
	}
	return vectorindex.Normalize(raw)
}
