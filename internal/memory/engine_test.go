package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/vectorindex"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := vectorindex.DefaultConfig()
	cfg.Dim = 16
	idx := vectorindex.New(cfg)
	graph := graphstore.New()
	nsReg, err := registry.NewNamespaceRegistry(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	provider := embeddings.NewHashProvider(16)
	return New(idx, graph, nsReg, provider)
}

func TestStore_RootNamespace_Succeeds(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Store(context.Background(), "root", []byte("hello"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestStore_RejectsInvalidNamespaceGrammar(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "k", []byte("v"), StoreOptions{Namespace: "Project"})
	assert.ErrorIs(t, err, ErrNamespaceValidation)
}

func TestStore_RejectsOrphanNonRootNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "child", []byte("v"), StoreOptions{Namespace: "project/api"})
	assert.ErrorIs(t, err, ErrOrphanNode)
}

func TestStore_LinkToNonexistentNodeFails(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "child", []byte("v"), StoreOptions{Namespace: "project/api", LinkTo: "missing"})
	assert.ErrorIs(t, err, ErrLinkTargetNotFound)
}

func TestStore_WithLinkToSucceeds(t *testing.T) {
	e := newTestEngine(t)
	rootID, err := e.Store(context.Background(), "root", []byte("hello"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	childID, err := e.Store(context.Background(), "child", []byte("world"), StoreOptions{
		Namespace: "project/api",
		LinkTo:    rootID,
		Relation:  "contains",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, childID)

	edges, err := e.graph.GetEdges(rootID, graphstore.DirectionOut)
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestStoreRetrieve_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "greeting", []byte("hello there"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	value, found, err := e.Retrieve("greeting", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello there", string(value))
}

func TestRetrieve_MissReturnsNotFound(t *testing.T) {
	e := newTestEngine(t)
	value, found, err := e.Retrieve("nope", "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestRetrieve_FiltersByNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "dup", []byte("a"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)
	_, err = e.Store(context.Background(), "dup", []byte("b"), StoreOptions{Namespace: "research"})
	require.NoError(t, err)

	value, found, err := e.Retrieve("dup", "research")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "b", string(value))
}

func TestSearch_ReturnsNearestByEmbedding(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "alpha", []byte("alpha content"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)
	_, err = e.Store(context.Background(), "beta", []byte("beta content"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	results, err := e.Search(context.Background(), SearchOptions{Query: "alpha content", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "alpha", results[0].Key)
}

func TestSearch_FiltersByNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Store(context.Background(), "a", []byte("shared text"), StoreOptions{Namespace: "project"})
	require.NoError(t, err)
	_, err = e.Store(context.Background(), "b", []byte("shared text"), StoreOptions{Namespace: "research"})
	require.NoError(t, err)

	results, err := e.Search(context.Background(), SearchOptions{Query: "shared text", Namespace: "research", Limit: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "research", r.Namespace)
	}
}
