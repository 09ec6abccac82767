package vectorindex

import "sort"

// bruteForceBackend is an O(n·D) linear scan, used below BruteForceLimit
// vectors. Grounded on the teacher's ExactSearch: score everything, sort
// descending, take the top k.
type bruteForceBackend struct {
	metric  Metric
	vectors map[string][]float32
}

func newBruteForceBackend(metric Metric) *bruteForceBackend {
	return &bruteForceBackend{metric: metric, vectors: make(map[string][]float32)}
}

func (b *bruteForceBackend) insert(id string, data []float32) {
	cp := make([]float32, len(data))
	copy(cp, data)
	b.vectors[id] = cp
}

func (b *bruteForceBackend) delete(id string) bool {
	if _, ok := b.vectors[id]; !ok {
		return false
	}
	delete(b.vectors, id)
	return true
}

func (b *bruteForceBackend) count() int { return len(b.vectors) }

func (b *bruteForceBackend) clear() { b.vectors = make(map[string][]float32) }

type scored struct {
	id    string
	score float32
}

func (b *bruteForceBackend) search(query []float32, k int, includeVectors bool) []Neighbor {
	scoredPoints := make([]scored, 0, len(b.vectors))
	for id, v := range b.vectors {
		scoredPoints = append(scoredPoints, scored{id: id, score: b.metric.similarity(query, v)})
	}

	sort.Slice(scoredPoints, func(i, j int) bool {
		return scoredPoints[i].score > scoredPoints[j].score
	})

	limit := k
	if len(scoredPoints) < limit {
		limit = len(scoredPoints)
	}
	if limit < 0 {
		limit = 0
	}

	results := make([]Neighbor, 0, limit)
	for i := 0; i < limit; i++ {
		n := Neighbor{ID: scoredPoints[i].id, Similarity: scoredPoints[i].score}
		if includeVectors {
			n.Vector = append([]float32(nil), b.vectors[scoredPoints[i].id]...)
		}
		results = append(results, n)
	}
	return results
}
