package memory

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/vectorindex"
)

// StoreOptions parameterizes Engine.Store.
type StoreOptions struct {
	Namespace string
	LinkTo    string // required when Namespace has more than one segment
	Relation  string
	Embedding []float32 // if nil, computed via the embedding provider
}

// SearchOptions parameterizes Engine.Search.
type SearchOptions struct {
	Namespace string // empty means search across all namespaces
	Limit     int
	MinScore  float64
	Embedding []float32 // if nil, computed from Query via the embedding provider
	Query     string
}

// SearchResult is one match returned by Engine.Search.
type SearchResult struct {
	Key       string
	Value     []byte
	Namespace string
	Score     float64
	NodeID    string
}

// Engine combines a vector index and a graph store into the atomic
// key/value memory contract: store/retrieve/search.
type Engine struct {
	vectors    *vectorindex.Index
	graph      *graphstore.Store
	namespaces *registry.NamespaceRegistry
	embedder   embeddings.Provider
}

// New constructs an Engine over already-constructed dependencies.
func New(vectors *vectorindex.Index, graph *graphstore.Store, namespaces *registry.NamespaceRegistry, embedder embeddings.Provider) *Engine {
	return &Engine{vectors: vectors, graph: graph, namespaces: namespaces, embedder: embedder}
}

// Store validates the namespace/orphan invariants, embeds value if
// needed, and performs the two-phase vector+graph write described in
// the memory engine contract, rolling back the vector insert if the
// graph commit fails.
func (e *Engine) Store(ctx context.Context, key string, value []byte, opts StoreOptions) (nodeID string, err error) {
	segments, err := validateNamespace(opts.Namespace)
	if err != nil {
		return "", err
	}
	if segments > 1 && opts.LinkTo == "" {
		return "", ErrOrphanNode
	}
	if opts.LinkTo != "" {
		if _, err := e.graph.GetNode(opts.LinkTo); err != nil {
			return "", fmt.Errorf("%w: %s", ErrLinkTargetNotFound, opts.LinkTo)
		}
	}

	if _, err := e.namespaces.EnsureNamespace(rootOf(opts.Namespace)); err != nil {
		return "", fmt.Errorf("recording root namespace: %w", err)
	}

	embedding := opts.Embedding
	if embedding == nil {
		embedding, err = e.embedder.Embed(ctx, string(value))
		if err != nil {
			return "", fmt.Errorf("computing embedding: %w", err)
		}
	}

	vectorID := uuid.NewString()
	if err := e.vectors.Insert(vectorID, embedding); err != nil {
		return "", fmt.Errorf("inserting embedding: %w", err)
	}

	rollbackVector := func() {
		e.vectors.Delete(vectorID)
	}

	properties := map[string]any{
		"key":       key,
		"valueB64":  base64.StdEncoding.EncodeToString(value),
		"namespace": opts.Namespace,
		"vectorId":  vectorID,
	}
	nodeID, err = e.graph.AddNode(graphstore.Node{
		Type:       graphstore.NodeTypeConcept,
		Label:      key,
		Namespace:  opts.Namespace,
		VectorID:   vectorID,
		Properties: properties,
	})
	if err != nil {
		rollbackVector()
		return "", fmt.Errorf("staging memory node: %w", err)
	}

	if opts.LinkTo != "" {
		metadata := map[string]any{"relation": opts.Relation}
		if _, err := e.graph.AddHyperedge([]string{opts.LinkTo}, []string{nodeID}, 1, 1, metadata); err != nil {
			e.graph.DeleteNode(nodeID)
			rollbackVector()
			return "", fmt.Errorf("linking memory node: %w", err)
		}
	}

	return nodeID, nil
}

// Retrieve scans the graph for a node whose key (and namespace, if
// given) matches, returning its decoded value. A miss returns (nil,
// false, nil); an actual error is distinguished via the error return.
func (e *Engine) Retrieve(key string, namespace string) (value []byte, found bool, err error) {
	for _, n := range e.graph.AllNodes() {
		k, _ := n.Properties["key"].(string)
		if k != key {
			continue
		}
		if namespace != "" {
			if ns, _ := n.Properties["namespace"].(string); ns != namespace {
				continue
			}
		}
		b64, _ := n.Properties["valueB64"].(string)
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, false, fmt.Errorf("memory record %s has corrupted value: %w", n.ID, err)
		}
		return decoded, true, nil
	}
	return nil, false, nil
}

// Search embeds the query (or uses a supplied embedding) and returns the
// nearest memory records, optionally filtered by namespace and
// MinScore.
func (e *Engine) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
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

	// Over-fetch since namespace filtering happens after the vector
	// search and may drop candidates.
	neighbors, err := e.vectors.Search(embedding, limit*4+limit, false)
	if err != nil {
		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	byVectorID := make(map[string]graphstore.Node)
	for _, n := range e.graph.AllNodes() {
		if n.VectorID != "" {
			byVectorID[n.VectorID] = n
		}
	}

	results := make([]SearchResult, 0, limit)
	for _, nb := range neighbors {
		if len(results) >= limit {
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

		b64, _ := node.Properties["valueB64"].(string)
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			continue
		}
		key, _ := node.Properties["key"].(string)

		results = append(results, SearchResult{
			Key:       key,
			Value:     decoded,
			Namespace: node.Namespace,
			Score:     float64(nb.Similarity),
			NodeID:    node.ID,
		})
	}
	return results, nil
}
