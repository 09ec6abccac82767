package recovery

import (
	"context"
	"fmt"

	"github.com/txc0ld/godagent/internal/memory"
)

// DescRetriever is a thin read-only wrapper over the memory engine's
// search, scoped to the context composer's DESC tier: prior-solution
// snippets keyed by agent and topic.
type DescRetriever struct {
	memory *memory.Engine
}

// NewDescRetriever builds a DescRetriever over an already-constructed
// memory engine.
func NewDescRetriever(m *memory.Engine) *DescRetriever {
	return &DescRetriever{memory: m}
}

// Retrieve searches the "episodes" namespace tree for the given agent,
// falling back to a cross-namespace search when agentID is empty, and
// returns up to limit hits ordered by similarity.
func (d *DescRetriever) Retrieve(ctx context.Context, agentID, topic string, limit int) ([]DescHit, error) {
	namespace := ""
	if agentID != "" {
		namespace = "episodes/" + agentID
	}

	results, err := d.memory.Search(ctx, memory.SearchOptions{
		Namespace: namespace,
		Query:     topic,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("desc retrieve: %w", err)
	}

	hits := make([]DescHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, DescHit{
			Key:     r.Key,
			Content: string(r.Value),
			Score:   r.Score,
		})
	}
	return hits, nil
}
