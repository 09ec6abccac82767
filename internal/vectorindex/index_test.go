package vectorindex

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dim int, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Dim = 8
	cfg.BruteForceLimit = 4
	return cfg
}

func TestIndex_InsertRejectsWrongDimension(t *testing.T) {
	idx := New(smallConfig())
	err := idx.Insert("a", []float32{1, 0})
	assert.Error(t, err)
}

func TestIndex_InsertRejectsUnnormalized(t *testing.T) {
	idx := New(smallConfig())
	data := make([]float32, 8)
	data[0] = 2
	err := idx.Insert("a", data)
	assert.Error(t, err)
}

func TestIndex_InsertOverwritesDuplicateID(t *testing.T) {
	idx := New(smallConfig())
	require.NoError(t, idx.Insert("a", unitVector(8, 0)))
	require.NoError(t, idx.Insert("a", unitVector(8, 1)))
	assert.Equal(t, 1, idx.Count())
}

func TestIndex_SearchReturnsNearestFirst(t *testing.T) {
	idx := New(smallConfig())
	require.NoError(t, idx.Insert("same", unitVector(8, 0)))
	require.NoError(t, idx.Insert("orthogonal", unitVector(8, 1)))

	results, err := idx.Search(unitVector(8, 0), 2, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "same", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
}

func TestIndex_DeleteRemovesVector(t *testing.T) {
	idx := New(smallConfig())
	require.NoError(t, idx.Insert("a", unitVector(8, 0)))
	assert.True(t, idx.Delete("a"))
	assert.False(t, idx.Delete("a"))
	assert.Equal(t, 0, idx.Count())
}

func TestIndex_SwitchesToHNSWAboveThreshold(t *testing.T) {
	cfg := smallConfig() // BruteForceLimit = 4
	idx := New(cfg)
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Insert(string(rune('a'+i)), unitVector(8, i%8)))
	}
	_, err := idx.Search(unitVector(8, 0), 3, false)
	require.NoError(t, err)
	assert.True(t, idx.UsingHNSW())
}

func TestIndex_StaysBruteForceBelowThreshold(t *testing.T) {
	cfg := smallConfig()
	idx := New(cfg)
	require.NoError(t, idx.Insert("a", unitVector(8, 0)))

	_, err := idx.Search(unitVector(8, 0), 1, false)
	require.NoError(t, err)
	assert.False(t, idx.UsingHNSW())
}

func TestIndex_SaveLoadRoundTrip_BruteForce(t *testing.T) {
	cfg := smallConfig()
	idx := New(cfg)
	require.NoError(t, idx.Insert("a", unitVector(8, 0)))
	require.NoError(t, idx.Insert("b", unitVector(8, 1)))

	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Count())

	results, err := loaded.Search(unitVector(8, 0), 1, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestIndex_SaveLoadRoundTrip_HNSW(t *testing.T) {
	cfg := smallConfig()
	idx := New(cfg)
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Insert(string(rune('a'+i)), unitVector(8, i%8)))
	}
	_, err := idx.Search(unitVector(8, 0), 1, false) // trigger rebuild/HNSW selection
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Count())
}

func TestIndex_LoadRejectsMismatchedDimension(t *testing.T) {
	cfg := smallConfig()
	idx := New(cfg)
	require.NoError(t, idx.Insert("a", unitVector(8, 0)))
	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, idx.Save(path))

	wrongDim := cfg
	wrongDim.Dim = 16
	_, err := Load(path, wrongDim)
	assert.Error(t, err)
}

func TestNormalize_ProducesUnitVector(t *testing.T) {
	data := []float32{3, 4} // norm 5
	normalized := Normalize(data)
	var sumSq float64
	for _, f := range normalized {
		sumSq += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}
