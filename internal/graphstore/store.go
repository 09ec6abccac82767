// Package graphstore implements a file-backed hypergraph of causal nodes
// and n-ary cause/effect edges, with forward/backward traversal that
// produces confidence-ranked chains.
package graphstore

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an in-memory hypergraph with optional file-backed persistence
// (see persistence.go). All operations are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	nodes map[string]*Node
	edges map[string]*Hyperedge

	// outEdges[n] holds ids of edges where n appears in Causes;
	// inEdges[n] holds ids of edges where n appears in Effects.
	outEdges map[string][]string
	inEdges  map[string][]string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		nodes:    make(map[string]*Node),
		edges:    make(map[string]*Hyperedge),
		outEdges: make(map[string][]string),
		inEdges:  make(map[string][]string),
	}
}

// AddNode inserts node, assigning an id if absent, and returns the
// assigned id.
func (s *Store) AddNode(n Node) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}

	s.nodes[n.ID] = &n
	return n.ID, nil
}

// UpdateNodeProperties merges updates into the existing node's
// properties (only properties are mutable post-creation).
func (s *Store) UpdateNodeProperties(id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	for k, v := range updates {
		n.Properties[k] = v
	}
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// GetNode returns a copy of the node with the given id.
func (s *Store) GetNode(id string) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return *n, nil
}

// DeleteNode removes a node. Hyperedges referencing it are left in place
// (dangling references are permitted; the source spec leaves this
// undefined, see DESIGN.md).
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	return true
}

// AllNodes returns a copy of every node currently stored, for callers
// that need to scan by property (e.g. the memory engine's key lookup).
func (s *Store) AllNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	return out
}

// AddHyperedge validates and inserts a new hyperedge, returning its id.
func (s *Store) AddHyperedge(causes, effects []string, confidence, strength float64, metadata map[string]any) (string, error) {
	if len(causes) == 0 || len(effects) == 0 {
		return "", fmt.Errorf("%w: at least one cause and one effect required", ErrInvalidHyperedge)
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) || confidence < 0 || confidence > 1 {
		return "", fmt.Errorf("%w: confidence %v out of [0,1]", ErrInvalidHyperedge, confidence)
	}
	if math.IsNaN(strength) || math.IsInf(strength, 0) || strength < 0 || strength > 1 {
		return "", fmt.Errorf("%w: strength %v out of [0,1]", ErrInvalidHyperedge, strength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append(append([]string{}, causes...), effects...) {
		if _, ok := s.nodes[id]; !ok {
			return "", fmt.Errorf("%w: referenced node %s does not exist", ErrInvalidHyperedge, id)
		}
	}

	if s.wouldCreateCycleLocked(causes, effects) {
		return "", ErrCycleDetected
	}

	edge := &Hyperedge{
		ID:         uuid.NewString(),
		Causes:     append([]string{}, causes...),
		Effects:    append([]string{}, effects...),
		Confidence: confidence,
		Strength:   strength,
		CreatedAt:  time.Now().UTC(),
		Metadata:   metadata,
	}
	s.edges[edge.ID] = edge
	for _, c := range edge.Causes {
		s.outEdges[c] = append(s.outEdges[c], edge.ID)
	}
	for _, e := range edge.Effects {
		s.inEdges[e] = append(s.inEdges[e], edge.ID)
	}
	return edge.ID, nil
}

// wouldCreateCycleLocked reports whether adding an edge from causes to
// effects would create a cycle: true if any cause node is forward-
// reachable from any effect node via existing edges. Caller must hold
// s.mu.
func (s *Store) wouldCreateCycleLocked(causes, effects []string) bool {
	causeSet := make(map[string]struct{}, len(causes))
	for _, c := range causes {
		causeSet[c] = struct{}{}
	}

	visited := make(map[string]bool)
	queue := append([]string{}, effects...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		if _, isCause := causeSet[id]; isCause {
			return true
		}

		for _, edgeID := range s.outEdges[id] {
			edge := s.edges[edgeID]
			if edge == nil {
				continue
			}
			queue = append(queue, edge.Effects...)
		}
	}
	return false
}

// GetEdges returns the hyperedges incident to nodeID in the requested
// direction.
func (s *Store) GetEdges(nodeID string, dir Direction) ([]Hyperedge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[nodeID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	seen := make(map[string]struct{})
	var ids []string
	if dir == DirectionOut || dir == DirectionBoth {
		ids = append(ids, s.outEdges[nodeID]...)
	}
	if dir == DirectionIn || dir == DirectionBoth {
		ids = append(ids, s.inEdges[nodeID]...)
	}

	result := make([]Hyperedge, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e := s.edges[id]; e != nil {
			result = append(result, *e)
		}
	}
	return result, nil
}
