package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashProvider_ProducesUnitVector(t *testing.T) {
	p := NewHashProvider(32)
	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 32)

	var sumSq float64
	for _, f := range vec {
		sumSq += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
}

func TestHashProvider_DeterministicForSameText(t *testing.T) {
	p := NewHashProvider(16)
	a, err := p.Embed(context.Background(), "reusable text")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "reusable text")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashProvider_DiffersForDifferentText(t *testing.T) {
	p := NewHashProvider(16)
	a, err := p.Embed(context.Background(), "text one")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "text two")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashProvider_RejectsEmptyInput(t *testing.T) {
	p := NewHashProvider(16)
	_, err := p.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHashProvider_EmbedBatch(t *testing.T) {
	p := NewHashProvider(16)
	out, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.NotEqual(t, out[0], out[1])
}

func TestNewProvider_DefaultsToHash(t *testing.T) {
	p, err := NewProvider(ProviderConfig{})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 1536, p.Dimension())
}

func TestNewProvider_RejectsUnknownProvider(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "nonexistent"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
