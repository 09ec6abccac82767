package episode

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/txc0ld/godagent/internal/dimcompat"
	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/vectorindex"
)

// recordKind tags a graph node as belonging to this engine, so Stats and
// Query can scan a graph store shared with internal/memory without
// picking up plain memory records.
const recordKind = "episode"

// Engine combines a vector index and a graph store into the episode
// contract: the same atomic stage-vector-then-commit-node-then-rollback
// discipline internal/memory.Engine.Store uses, generalized to carry
// Episode's tags/session/quality fields and exposed through
// create/query/link/stats/get/delete/getLinks/update/save.
type Engine struct {
	vectors    *vectorindex.Index
	graph      *graphstore.Store
	namespaces *registry.NamespaceRegistry
	embedder   embeddings.Provider
	compat     *dimcompat.Converter
}

// New constructs an Engine over already-constructed dependencies. compat
// may be nil, in which case client-supplied embeddings of a non-canonical
// dimension are rejected by the vector index rather than upgraded.
func New(vectors *vectorindex.Index, graph *graphstore.Store, namespaces *registry.NamespaceRegistry, embedder embeddings.Provider, compat *dimcompat.Converter) *Engine {
	return &Engine{vectors: vectors, graph: graph, namespaces: namespaces, embedder: embedder, compat: compat}
}

// Create validates the namespace/orphan invariants, embeds content if
// needed, and performs the two-phase vector+graph write, rolling back
// the vector insert if the graph commit fails.
func (e *Engine) Create(ctx context.Context, key, content string, opts CreateOptions) (Episode, error) {
	segments, err := validateNamespace(opts.Namespace)
	if err != nil {
		return Episode{}, err
	}
	if segments > 1 && opts.LinkTo == "" {
		return Episode{}, ErrOrphanEpisode
	}
	if opts.LinkTo != "" {
		if _, err := e.graph.GetNode(opts.LinkTo); err != nil {
			return Episode{}, fmt.Errorf("%w: %s", ErrLinkTargetNotFound, opts.LinkTo)
		}
	}

	if _, err := e.namespaces.EnsureNamespace(rootOf(opts.Namespace)); err != nil {
		return Episode{}, fmt.Errorf("recording root namespace: %w", err)
	}

	embedding := opts.Embedding
	if embedding == nil {
		embedding, err = e.embedder.Embed(ctx, content)
		if err != nil {
			return Episode{}, fmt.Errorf("computing embedding: %w", err)
		}
	} else if e.compat != nil {
		embedding, _, err = e.compat.Convert(embedding, opts.Namespace)
		if err != nil {
			return Episode{}, fmt.Errorf("converting supplied embedding: %w", err)
		}
	}

	vectorID := uuid.NewString()
	if err := e.vectors.Insert(vectorID, embedding); err != nil {
		return Episode{}, fmt.Errorf("inserting embedding: %w", err)
	}
	rollbackVector := func() { e.vectors.Delete(vectorID) }

	now := time.Now().UTC()
	properties := map[string]any{
		"recordKind": recordKind,
		"key":        key,
		"valueB64":   base64.StdEncoding.EncodeToString([]byte(content)),
		"namespace":  opts.Namespace,
		"vectorId":   vectorID,
		"tags":       opts.Tags,
		"sessionId":  opts.SessionID,
		"quality":    opts.Quality,
	}
	nodeID, err := e.graph.AddNode(graphstore.Node{
		Type:       graphstore.NodeTypeConcept,
		Label:      key,
		Namespace:  opts.Namespace,
		VectorID:   vectorID,
		Properties: properties,
	})
	if err != nil {
		rollbackVector()
		return Episode{}, fmt.Errorf("staging episode node: %w", err)
	}

	if opts.LinkTo != "" {
		metadata := map[string]any{"relation": opts.Relation}
		if _, err := e.graph.AddHyperedge([]string{opts.LinkTo}, []string{nodeID}, 1, 1, metadata); err != nil {
			e.graph.DeleteNode(nodeID)
			rollbackVector()
			return Episode{}, fmt.Errorf("linking episode node: %w", err)
		}
	}

	node, err := e.graph.GetNode(nodeID)
	if err != nil {
		return Episode{}, fmt.Errorf("reloading committed episode: %w", err)
	}
	return nodeToEpisode(node), nil
}

// Get returns the episode with the given node id.
func (e *Engine) Get(id string) (Episode, error) {
	node, err := e.graph.GetNode(id)
	if err != nil {
		return Episode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if kind, _ := node.Properties["recordKind"].(string); kind != recordKind {
		return Episode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nodeToEpisode(node), nil
}

// Update merges non-nil fields of updates into the episode's mutable
// properties (content, tags, quality); the key, namespace, and vector
// never change after creation.
func (e *Engine) Update(id string, updates UpdateOptions) (Episode, error) {
	if _, err := e.Get(id); err != nil {
		return Episode{}, err
	}

	patch := make(map[string]any)
	if updates.Content != nil {
		patch["valueB64"] = base64.StdEncoding.EncodeToString([]byte(*updates.Content))
	}
	if updates.Tags != nil {
		patch["tags"] = updates.Tags
	}
	if updates.Quality != nil {
		patch["quality"] = *updates.Quality
	}

	if err := e.graph.UpdateNodeProperties(id, patch); err != nil {
		return Episode{}, fmt.Errorf("updating episode %s: %w", id, err)
	}
	return e.Get(id)
}

// Delete removes the episode's graph node and its vector. The vector
// index delete is best-effort: a missing vector id is not an error, since
// a prior crash may already have dropped it (see internal/recovery).
func (e *Engine) Delete(id string) error {
	node, err := e.Get(id)
	if err != nil {
		return err
	}
	if node.VectorID != "" {
		e.vectors.Delete(node.VectorID)
	}
	if !e.graph.DeleteNode(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Link creates a hyperedge from causeID to effectID, the episode.link
// contract's single-cause single-effect shorthand over
// graphstore.AddHyperedge.
func (e *Engine) Link(causeID, effectID, relation string, confidence, strength float64) (string, error) {
	metadata := map[string]any{"relation": relation}
	return e.graph.AddHyperedge([]string{causeID}, []string{effectID}, confidence, strength, metadata)
}

// GetLinks returns the hyperedges incident to an episode in the requested
// direction.
func (e *Engine) GetLinks(id string, dir graphstore.Direction) ([]graphstore.Hyperedge, error) {
	return e.graph.GetEdges(id, dir)
}

// Query embeds the search text (or uses a supplied embedding) and returns
// the nearest episodes, optionally filtered by namespace, session, and
// tags.
func (e *Engine) Query(ctx context.Context, opts QueryOptions) ([]QueryHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	embedding := opts.Embedding
	if embedding == nil {
		var err error
		embedding, err = e.embedder.Embed(ctx, opts.Query)
		if err != nil {
			return nil, fmt.Errorf("computing query embedding: %w", err)
		}
	}

	neighbors, err := e.vectors.Search(embedding, limit*4+limit, false)
	if err != nil {
		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	byVectorID := make(map[string]graphstore.Node)
	for _, n := range e.graph.AllNodes() {
		if kind, _ := n.Properties["recordKind"].(string); kind != recordKind {
			continue
		}
		if n.VectorID != "" {
			byVectorID[n.VectorID] = n
		}
	}

	hits := make([]QueryHit, 0, limit)
	for _, nb := range neighbors {
		if len(hits) >= limit {
			break
		}
		if float64(nb.Similarity) < opts.MinScore {
			continue
		}
		node, ok := byVectorID[nb.ID]
		if !ok {
			continue
		}
		if opts.Namespace != "" && node.Namespace != opts.Namespace {
			continue
		}
		ep := nodeToEpisode(node)
		if opts.SessionID != "" && ep.SessionID != opts.SessionID {
			continue
		}
		if len(opts.Tags) > 0 && !hasAnyTag(ep.Tags, opts.Tags) {
			continue
		}

		hits = append(hits, QueryHit{Episode: ep, Score: float64(nb.Similarity)})
	}
	return hits, nil
}

// Stats summarizes the episodes currently stored.
func (e *Engine) Stats() Stats {
	stats := Stats{ByNamespace: make(map[string]int)}
	var qualitySum float64

	for _, n := range e.graph.AllNodes() {
		if kind, _ := n.Properties["recordKind"].(string); kind != recordKind {
			continue
		}
		stats.TotalEpisodes++
		stats.ByNamespace[n.Namespace]++
		if q, ok := n.Properties["quality"].(float64); ok {
			qualitySum += q
		}
	}
	if stats.TotalEpisodes > 0 {
		stats.AverageQuality = qualitySum / float64(stats.TotalEpisodes)
	}
	return stats
}

// Save persists the backing graph store to path (the episode.save
// contract: flush the current in-memory state to disk on demand, outside
// the daemon's own shutdown snapshot).
func (e *Engine) Save(path string) error {
	return e.graph.Save(path)
}

func nodeToEpisode(n graphstore.Node) Episode {
	key, _ := n.Properties["key"].(string)
	b64, _ := n.Properties["valueB64"].(string)
	content, _ := base64.StdEncoding.DecodeString(b64)
	sessionID, _ := n.Properties["sessionId"].(string)
	quality, _ := n.Properties["quality"].(float64)

	var tags []string
	switch v := n.Properties["tags"].(type) {
	case []string:
		tags = v
	case []any:
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	return Episode{
		ID:        n.ID,
		Key:       key,
		Content:   string(content),
		Namespace: n.Namespace,
		Tags:      tags,
		SessionID: sessionID,
		Quality:   quality,
		VectorID:  n.VectorID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func hasAnyTag(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
