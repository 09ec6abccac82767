package graphstore

import "errors"

var (
	// ErrNodeNotFound is returned by GetNode/GetEdges for an unknown id.
	ErrNodeNotFound = errors.New("graphstore: node not found")
	// ErrInvalidHyperedge covers missing causes/effects, out-of-range
	// confidence/strength, or a non-finite weight.
	ErrInvalidHyperedge = errors.New("graphstore: invalid hyperedge")
	// ErrCycleDetected is returned when adding a hyperedge would create a
	// cycle reachable via a forward cause->effect walk.
	ErrCycleDetected = errors.New("graphstore: hyperedge would introduce a cycle")
	// ErrEdgeNotFound is returned by GetHyperedge for an unknown id.
	ErrEdgeNotFound = errors.New("graphstore: hyperedge not found")
)
