package graphstore

import "sort"

// Traverse walks the hypergraph from opts.StartSet, producing chains of
// edges bounded by MaxDepth/MaxChains/MinConfidence. Results are sorted
// by combined confidence descending, ties broken by shorter path then
// lexicographic edge-id sequence, for determinism.
func (s *Store) Traverse(opts TraverseOptions) ([]Chain, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 5
	}
	if opts.MaxChains <= 0 {
		opts.MaxChains = 100
	}
	dir := opts.Direction
	if dir == "" {
		dir = DirectionOut
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var chains []Chain
	for _, start := range opts.StartSet {
		if _, ok := s.nodes[start]; !ok {
			continue
		}
		s.walkLocked(start, dir, opts, []string{start}, nil, []string{start}, 1.0, &chains)
	}

	sort.Slice(chains, func(i, j int) bool {
		if chains[i].Confidence != chains[j].Confidence {
			return chains[i].Confidence > chains[j].Confidence
		}
		if len(chains[i].EdgeIDs) != len(chains[j].EdgeIDs) {
			return len(chains[i].EdgeIDs) < len(chains[j].EdgeIDs)
		}
		return lexLess(chains[i].EdgeIDs, chains[j].EdgeIDs)
	})

	if len(chains) > opts.MaxChains {
		chains = chains[:opts.MaxChains]
	}
	return chains, nil
}

// walkLocked performs a depth-bounded DFS accumulating chains into *out.
// visitedNodes tracks the current path for cycle detection; edgeIDs and
// nodeIDs accumulate the chain built so far. Caller must hold s.mu for
// reading.
func (s *Store) walkLocked(current string, dir Direction, opts TraverseOptions, path []string, edgeIDs, nodeIDs []string, confidence float64, out *[]Chain) {
	if len(*out) >= opts.MaxChains*4 {
		// Bound exploration work even before the final sort/truncate;
		// a generous multiple of MaxChains avoids pathological blowup
		// on densely connected graphs.
		return
	}
	if len(edgeIDs) > 0 {
		*out = append(*out, Chain{
			EdgeIDs:    append([]string{}, edgeIDs...),
			NodeIDs:    append([]string{}, nodeIDs...),
			Confidence: confidence,
		})
	}
	if len(path) > opts.MaxDepth {
		return
	}

	var candidateEdges []string
	if dir == DirectionOut || dir == DirectionBoth {
		candidateEdges = append(candidateEdges, s.outEdges[current]...)
	}
	if dir == DirectionIn || dir == DirectionBoth {
		candidateEdges = append(candidateEdges, s.inEdges[current]...)
	}

	for _, edgeID := range candidateEdges {
		edge := s.edges[edgeID]
		if edge == nil {
			continue
		}
		combined := confidence * edge.Confidence
		if combined < opts.MinConfidence {
			continue
		}

		var nextNodes []string
		if contains(edge.Causes, current) {
			nextNodes = edge.Effects
		} else {
			nextNodes = edge.Causes
		}

		for _, next := range nextNodes {
			if opts.StopOnCycle && contains(path, next) {
				continue
			}
			s.walkLocked(next, dir, opts, append(path, next), append(edgeIDs, edgeID), append(nodeIDs, next), combined, out)
		}
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func lexLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
