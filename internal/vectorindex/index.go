package vectorindex

import (
	"fmt"
	"sync"
)

// Config parameterizes an Index; fields mirror config.VectorIndexConfig
// so callers can build one directly from loaded configuration.
type Config struct {
	Dim             int
	BruteForceLimit int
	M               int
	EfConstruction  int
	EfSearch        int
	NormEpsilon     float64
	Metric          Metric
}

// DefaultConfig returns the spec-mandated defaults: dim 1536, threshold
// 1000, M=16, efConstruction=200, efSearch=50.
func DefaultConfig() Config {
	return Config{
		Dim:             1536,
		BruteForceLimit: 1000,
		M:               16,
		EfConstruction:  200,
		EfSearch:        50,
		NormEpsilon:     NormEpsilon,
		Metric:          MetricCosine,
	}
}

// Index is the dual-backend nearest-neighbor index: a brute-force scan
// below cfg.BruteForceLimit vectors, an HNSW-like graph at or above it.
// Mutations mark the index dirty; a dirty index is rebuilt lazily on the
// next search rather than eagerly on every insert/delete, so a burst of
// writes pays the rebuild cost once.
type Index struct {
	cfg Config

	mu      sync.RWMutex
	vectors map[string][]float32 // authoritative store; backends are derived views
	dirty   bool

	brute *bruteForceBackend
	hnsw  *hnswBackend
	// useHNSW caches which backend search() consulted after the last
	// rebuild, since the threshold crossing only takes effect at rebuild
	// time, not on every insert.
	useHNSW bool
}

// New constructs an empty Index.
func New(cfg Config) *Index {
	return &Index{
		cfg:     cfg,
		vectors: make(map[string][]float32),
		brute:   newBruteForceBackend(cfg.Metric),
		hnsw:    newHNSWBackend(cfg.Metric, cfg.M, cfg.EfConstruction, cfg.EfSearch),
		dirty:   true,
	}
}

// Insert validates and inserts (or overwrites) a vector. Overwrite is the
// canonical duplicate-id policy.
func (idx *Index) Insert(id string, data []float32) error {
	v := Vector{ID: id, Data: data}
	if err := v.Validate(idx.cfg.Dim, idx.cfg.NormEpsilon); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := make([]float32, len(data))
	copy(cp, data)
	idx.vectors[id] = cp
	idx.dirty = true
	return nil
}

// Delete removes a vector by id, reporting whether it was present.
func (idx *Index) Delete(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.vectors[id]; !ok {
		return false
	}
	delete(idx.vectors, id)
	idx.dirty = true
	return true
}

// Has reports whether id is currently present in the index.
func (idx *Index) Has(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.vectors[id]
	return ok
}

// Count returns the current number of vectors held.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Clear removes every vector.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = make(map[string][]float32)
	idx.dirty = true
}

// Search returns up to k nearest neighbors to query, rebuilding whichever
// backend is active if the index is dirty.
func (idx *Index) Search(query []float32, k int, includeVectors bool) ([]Neighbor, error) {
	if len(query) != idx.cfg.Dim {
		return nil, fmt.Errorf("query vector has dimension %d, want %d", len(query), idx.cfg.Dim)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.Lock()
	if idx.dirty {
		idx.rebuildLocked()
	}
	useHNSW := idx.useHNSW
	var results []Neighbor
	if useHNSW {
		results = idx.hnsw.search(query, k, includeVectors)
	} else {
		results = idx.brute.search(query, k, includeVectors)
	}
	idx.mu.Unlock()

	return results, nil
}

// rebuildLocked re-derives the active backend from idx.vectors. Caller
// must hold idx.mu for writing.
func (idx *Index) rebuildLocked() {
	idx.useHNSW = len(idx.vectors) >= idx.cfg.BruteForceLimit

	if idx.useHNSW {
		idx.hnsw.clear()
		for id, data := range idx.vectors {
			idx.hnsw.insert(id, data)
		}
	} else {
		idx.brute.clear()
		for id, data := range idx.vectors {
			idx.brute.insert(id, data)
		}
	}
	idx.dirty = false
}

// UsingHNSW reports whether the last rebuild selected the HNSW-like
// backend, for diagnostics/tests.
func (idx *Index) UsingHNSW() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.useHNSW
}

// Save persists the index. Writes legacy v1 binary when the brute-force
// backend is (or would be, after a rebuild) active, v2 JSON otherwise —
// matching spec's "writes use v1 if the backend is brute-force, v2
// otherwise".
func (idx *Index) Save(path string) error {
	idx.mu.Lock()
	if idx.dirty {
		idx.rebuildLocked()
	}
	useHNSW := idx.useHNSW
	vectors := make(map[string][]float32, len(idx.vectors))
	for id, v := range idx.vectors {
		vectors[id] = v
	}
	var links map[string]map[string]struct{}
	entry := ""
	if useHNSW {
		links = idx.hnsw.links
		entry = idx.hnsw.entryPoint
	}
	idx.mu.Unlock()

	if useHNSW {
		return writeJSONV2(path, idx.cfg.Dim, idx.cfg.Metric, vectors, links, entry)
	}
	return writeLegacyV1(path, idx.cfg.Dim, vectors)
}

// Load reads an index file, auto-detecting v1 binary vs v2 JSON from the
// first byte, and replaces the in-memory contents.
func Load(path string, cfg Config) (*Index, error) {
	isJSON, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	idx := New(cfg)

	if !isJSON {
		dim, vectors, err := readLegacyV1(path)
		if err != nil {
			return nil, err
		}
		if dim != cfg.Dim {
			return nil, fmt.Errorf("legacy vector index dimension %d does not match configured dimension %d", dim, cfg.Dim)
		}
		idx.vectors = vectors
		idx.dirty = true
		return idx, nil
	}

	doc, err := readJSONV2(path)
	if err != nil {
		return nil, err
	}
	if doc.Dim != cfg.Dim {
		return nil, fmt.Errorf("vector index dimension %d does not match configured dimension %d", doc.Dim, cfg.Dim)
	}
	idx.vectors = doc.Vectors
	if idx.vectors == nil {
		idx.vectors = make(map[string][]float32)
	}
	idx.dirty = true
	return idx, nil
}
