package graphstore

// GetHyperedge returns a copy of the hyperedge with the given id, backing
// hyperedge.get.
func (s *Store) GetHyperedge(id string) (Hyperedge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[id]
	if !ok {
		return Hyperedge{}, ErrEdgeNotFound
	}
	return *e, nil
}

// Stats summarizes the hyperedges currently stored, backing
// hyperedge.stats.
type Stats struct {
	NodeCount         int
	EdgeCount         int
	AverageConfidence float64
	AverageStrength   float64
}

// Stats returns a snapshot of the store's size and average edge weights.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{NodeCount: len(s.nodes), EdgeCount: len(s.edges)}
	if stats.EdgeCount == 0 {
		return stats
	}
	var confSum, strengthSum float64
	for _, e := range s.edges {
		confSum += e.Confidence
		strengthSum += e.Strength
	}
	stats.AverageConfidence = confSum / float64(stats.EdgeCount)
	stats.AverageStrength = strengthSum / float64(stats.EdgeCount)
	return stats
}

// Expand returns the one-hop hyperedges incident to any node in nodeIDs,
// in the requested direction, deduplicated — the breadth-first building
// block hyperedge.expand uses to grow a frontier one hop at a time,
// distinct from Traverse's multi-hop chain enumeration.
func (s *Store) Expand(nodeIDs []string, dir Direction) ([]Hyperedge, error) {
	seen := make(map[string]struct{})
	var out []Hyperedge
	for _, id := range nodeIDs {
		edges, err := s.GetEdges(id, dir)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}
