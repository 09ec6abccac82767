package recovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/memory"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/vectorindex"
)

func newTestDeps(t *testing.T) (*graphstore.Store, *vectorindex.Index, embeddings.Provider, *memory.Engine) {
	t.Helper()
	graph := graphstore.New()
	vectors := vectorindex.New(vectorindex.Config{
		Dim: 16, BruteForceLimit: 1000, M: 16, EfConstruction: 200, EfSearch: 50,
		NormEpsilon: vectorindex.NormEpsilon, Metric: vectorindex.MetricCosine,
	})
	embedder := embeddings.NewHashProvider(16)
	nsReg, err := registry.NewNamespaceRegistry(t.TempDir())
	require.NoError(t, err)
	eng := memory.New(vectors, graph, nsReg, embedder)
	return graph, vectors, embedder, eng
}

func TestCheck_FindsNodeWithMissingVector(t *testing.T) {
	graph, vectors, embedder, eng := newTestDeps(t)
	ctx := context.Background()

	nodeID, err := eng.Store(ctx, "fact-1", []byte("hello world"), memory.StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	node, err := graph.GetNode(nodeID)
	require.NoError(t, err)
	vectors.Delete(node.VectorID)

	c := NewChecker(graph, vectors, embedder)
	report := c.Check()
	require.Len(t, report.Inconsistencies, 1)
	assert.Equal(t, nodeID, report.Inconsistencies[0].NodeID)
	assert.Equal(t, "fact-1", report.Inconsistencies[0].Key)
}

func TestCheck_CleanStateHasNoInconsistencies(t *testing.T) {
	graph, vectors, embedder, eng := newTestDeps(t)
	ctx := context.Background()
	_, err := eng.Store(ctx, "fact-1", []byte("hello"), memory.StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	report := NewChecker(graph, vectors, embedder).Check()
	assert.Empty(t, report.Inconsistencies)
	assert.Equal(t, 1, report.CheckedNodes)
}

func TestReconstruct_RestoresMissingVector(t *testing.T) {
	graph, vectors, embedder, eng := newTestDeps(t)
	ctx := context.Background()

	nodeID, err := eng.Store(ctx, "fact-1", []byte("hello world"), memory.StoreOptions{Namespace: "project"})
	require.NoError(t, err)
	node, err := graph.GetNode(nodeID)
	require.NoError(t, err)
	vectors.Delete(node.VectorID)

	c := NewChecker(graph, vectors, embedder)
	report := c.Reconstruct(ctx)
	require.Len(t, report.Reconstructed, 1)
	assert.Equal(t, nodeID, report.Reconstructed[0])
	assert.True(t, vectors.Has(node.VectorID))

	after := c.Check()
	assert.Empty(t, after.Inconsistencies)
}
