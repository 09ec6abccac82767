package vectorindex

import "sort"

// hnswBackend is a simplified, single-layer HNSW-like navigable graph used
// once the index holds at least BruteForceLimit vectors. No third-party
// ANN library is wired for this (the pack's own ANN-capable stores —
// qdrant, chromem — are dropped per the Non-goals on remote/embedded
// vector databases; see DESIGN.md), so this is a direct, spec-parameterized
// construction: each node keeps up to M bidirectional links, chosen
// greedily by similarity at insert time, and search is a breadth-first
// walk of the links from an entry point that keeps a result list bounded
// by efSearch.
type hnswBackend struct {
	metric Metric

	m              int
	efConstruction int
	efSearch       int

	nodes      map[string][]float32
	links      map[string]map[string]struct{}
	entryPoint string
}

func newHNSWBackend(metric Metric, m, efConstruction, efSearch int) *hnswBackend {
	return &hnswBackend{
		metric:         metric,
		m:              m,
		efConstruction: efConstruction,
		efSearch:       efSearch,
		nodes:          make(map[string][]float32),
		links:          make(map[string]map[string]struct{}),
	}
}

func (h *hnswBackend) count() int { return len(h.nodes) }

func (h *hnswBackend) clear() {
	h.nodes = make(map[string][]float32)
	h.links = make(map[string]map[string]struct{})
	h.entryPoint = ""
}

func (h *hnswBackend) insert(id string, data []float32) {
	cp := make([]float32, len(data))
	copy(cp, data)

	if _, exists := h.nodes[id]; exists {
		h.delete(id)
	}

	h.nodes[id] = cp
	h.links[id] = make(map[string]struct{})

	if h.entryPoint == "" {
		h.entryPoint = id
		return
	}

	candidates := h.searchCandidates(cp, h.efConstruction, id)
	limit := h.m
	if len(candidates) < limit {
		limit = len(candidates)
	}
	for i := 0; i < limit; i++ {
		h.connect(id, candidates[i].id)
	}
}

// connect adds a bidirectional link, pruning each side back to m entries
// by similarity if it grows beyond that.
func (h *hnswBackend) connect(a, b string) {
	h.links[a][b] = struct{}{}
	h.links[b][a] = struct{}{}
	h.pruneLinks(a)
	h.pruneLinks(b)
}

func (h *hnswBackend) pruneLinks(id string) {
	neighbors := h.links[id]
	if len(neighbors) <= h.m {
		return
	}
	self := h.nodes[id]
	scoredNeighbors := make([]scored, 0, len(neighbors))
	for n := range neighbors {
		scoredNeighbors = append(scoredNeighbors, scored{id: n, score: h.metric.similarity(self, h.nodes[n])})
	}
	sort.Slice(scoredNeighbors, func(i, j int) bool { return scoredNeighbors[i].score > scoredNeighbors[j].score })

	kept := make(map[string]struct{}, h.m)
	for i := 0; i < h.m && i < len(scoredNeighbors); i++ {
		kept[scoredNeighbors[i].id] = struct{}{}
	}
	for n := range neighbors {
		if _, ok := kept[n]; !ok {
			delete(h.links[id], n)
			delete(h.links[n], id)
		}
	}
}

func (h *hnswBackend) delete(id string) bool {
	if _, ok := h.nodes[id]; !ok {
		return false
	}
	for n := range h.links[id] {
		delete(h.links[n], id)
	}
	delete(h.links, id)
	delete(h.nodes, id)

	if h.entryPoint == id {
		h.entryPoint = ""
		for other := range h.nodes {
			h.entryPoint = other
			break
		}
	}
	return true
}

func (h *hnswBackend) search(query []float32, k int, includeVectors bool) []Neighbor {
	candidates := h.searchCandidates(query, max(h.efSearch, k), "")

	limit := k
	if len(candidates) < limit {
		limit = len(candidates)
	}
	if limit < 0 {
		limit = 0
	}

	results := make([]Neighbor, 0, limit)
	for i := 0; i < limit; i++ {
		n := Neighbor{ID: candidates[i].id, Similarity: candidates[i].score}
		if includeVectors {
			n.Vector = append([]float32(nil), h.nodes[candidates[i].id]...)
		}
		results = append(results, n)
	}
	return results
}

// searchCandidates walks the links breadth-first from the entry point,
// visiting every node reachable from it, and returns the ef visited
// nodes most similar to query, sorted by similarity descending. excludeID,
// when non-empty, omits a node from the result (used during insert so a
// node is never linked to itself).
func (h *hnswBackend) searchCandidates(query []float32, ef int, excludeID string) []scored {
	if len(h.nodes) == 0 || h.entryPoint == "" {
		return nil
	}

	visited := make(map[string]struct{})
	frontier := []string{h.entryPoint}
	visited[h.entryPoint] = struct{}{}

	var results []scored
	if h.entryPoint != excludeID {
		results = append(results, scored{id: h.entryPoint, score: h.metric.similarity(query, h.nodes[h.entryPoint])})
	}

	for len(frontier) > 0 && len(visited) < len(h.nodes) {
		next := frontier[0]
		frontier = frontier[1:]

		neighborIDs := make([]string, 0, len(h.links[next]))
		for n := range h.links[next] {
			if _, seen := visited[n]; seen {
				continue
			}
			neighborIDs = append(neighborIDs, n)
		}

		for _, n := range neighborIDs {
			visited[n] = struct{}{}
			if n != excludeID {
				results = append(results, scored{id: n, score: h.metric.similarity(query, h.nodes[n])})
			}
			frontier = append(frontier, n)
		}

		sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
		if len(results) > ef {
			results = results[:ef]
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	return results
}
