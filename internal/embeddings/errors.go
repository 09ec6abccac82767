// Package embeddings provides embedding generation via multiple
// providers behind a single injectable interface.
package embeddings

import "errors"

var (
	// ErrEmptyInput indicates empty or nil input text(s).
	ErrEmptyInput = errors.New("embeddings: empty or nil input")
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("embeddings: invalid configuration")
	// ErrEmbeddingFailed indicates the underlying model failed to produce
	// an embedding.
	ErrEmbeddingFailed = errors.New("embeddings: generation failed")
)
