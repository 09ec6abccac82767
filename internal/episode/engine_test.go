package episode

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/dimcompat"
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
	compat := dimcompat.NewConverter(16, 8, 0)
	return New(idx, graph, nsReg, provider, compat)
}

func TestCreate_RootNamespace_Succeeds(t *testing.T) {
	e := newTestEngine(t)
	ep, err := e.Create(context.Background(), "root", "hello", CreateOptions{Namespace: "project", Quality: 0.8, Tags: []string{"intro"}})
	require.NoError(t, err)
	assert.NotEmpty(t, ep.ID)
	assert.Equal(t, "hello", ep.Content)
	assert.Equal(t, 0.8, ep.Quality)
	assert.Equal(t, []string{"intro"}, ep.Tags)
}

func TestCreate_RejectsOrphanNonRootNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "child", "v", CreateOptions{Namespace: "project/api"})
	assert.ErrorIs(t, err, ErrOrphanEpisode)
}

func TestCreate_LinkToNonexistentFails(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "child", "v", CreateOptions{Namespace: "project/api", LinkTo: "missing"})
	assert.ErrorIs(t, err, ErrLinkTargetNotFound)
}

func TestGet_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	created, err := e.Create(context.Background(), "root", "hello there", CreateOptions{Namespace: "project"})
	require.NoError(t, err)

	got, err := e.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", got.Content)
}

func TestGet_MissingReturnsNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_MergesOnlyProvidedFields(t *testing.T) {
	e := newTestEngine(t)
	created, err := e.Create(context.Background(), "root", "v1", CreateOptions{Namespace: "project", Quality: 0.5})
	require.NoError(t, err)

	newContent := "v2"
	updated, err := e.Update(created.ID, UpdateOptions{Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
	assert.Equal(t, 0.5, updated.Quality)
}

func TestDelete_RemovesNodeAndVector(t *testing.T) {
	e := newTestEngine(t)
	created, err := e.Create(context.Background(), "root", "v", CreateOptions{Namespace: "project"})
	require.NoError(t, err)

	require.NoError(t, e.Delete(created.ID))
	assert.False(t, e.vectors.Has(created.VectorID))
	_, err = e.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkAndGetLinks(t *testing.T) {
	e := newTestEngine(t)
	a, err := e.Create(context.Background(), "a", "va", CreateOptions{Namespace: "project"})
	require.NoError(t, err)
	b, err := e.Create(context.Background(), "b", "vb", CreateOptions{Namespace: "project"})
	require.NoError(t, err)

	_, err = e.Link(a.ID, b.ID, "precedes", 0.9, 0.9)
	require.NoError(t, err)

	edges, err := e.GetLinks(a.ID, graphstore.DirectionOut)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "precedes", edges[0].Metadata["relation"])
}

func TestQuery_ReturnsNearestAndFiltersByTags(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "alpha", "alpha content", CreateOptions{Namespace: "project", Tags: []string{"bugfix"}})
	require.NoError(t, err)
	_, err = e.Create(context.Background(), "beta", "beta content", CreateOptions{Namespace: "project", Tags: []string{"feature"}})
	require.NoError(t, err)

	hits, err := e.Query(context.Background(), QueryOptions{Query: "alpha content", Tags: []string{"bugfix"}, Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "alpha", hits[0].Episode.Key)
}

func TestStats_CountsAndAveragesQuality(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "a", "va", CreateOptions{Namespace: "project", Quality: 0.4})
	require.NoError(t, err)
	_, err = e.Create(context.Background(), "b", "vb", CreateOptions{Namespace: "research", Quality: 0.8})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, 2, stats.TotalEpisodes)
	assert.Equal(t, 1, stats.ByNamespace["project"])
	assert.InDelta(t, 0.6, stats.AverageQuality, 1e-9)
}

func TestSave_PersistsGraphToDisk(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "a", "va", CreateOptions{Namespace: "project"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, e.Save(path))

	reloaded, err := graphstore.Load(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.AllNodes(), 1)
}
