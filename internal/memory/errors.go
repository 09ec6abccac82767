// Package memory implements the memory engine: atomic key/value storage
// that combines the vector index and the graph store so every stored
// record is both embedded (for similarity search) and linked into the
// causal graph (for namespace/relation bookkeeping).
package memory

import "errors"

var (
	// ErrNamespaceValidation is returned when a namespace string fails the
	// path-like grammar check.
	ErrNamespaceValidation = errors.New("memory: invalid namespace")
	// ErrOrphanNode is returned when a non-root namespace is used without
	// linkTo identifying an existing node.
	ErrOrphanNode = errors.New("memory: orphan node: linkTo required for non-root namespace")
	// ErrLinkTargetNotFound is returned when linkTo names a node that does
	// not exist.
	ErrLinkTargetNotFound = errors.New("memory: linkTo target does not exist")
)
