package recovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txc0ld/godagent/internal/memory"
)

func TestDescRetrieve_ReturnsMatchesFromAgentNamespace(t *testing.T) {
	_, _, _, eng := newTestDeps(t)
	ctx := context.Background()

	rootID, err := eng.Store(ctx, "episodes-root", []byte("root"), memory.StoreOptions{Namespace: "episodes"})
	require.NoError(t, err)
	_, err = eng.Store(ctx, "solved-bug-42", []byte("fixed the nil pointer in the parser"), memory.StoreOptions{
		Namespace: "episodes/writer",
		LinkTo:    rootID,
	})
	require.NoError(t, err)

	d := NewDescRetriever(eng)
	hits, err := d.Retrieve(ctx, "writer", "nil pointer parser", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "solved-bug-42", hits[0].Key)
}

func TestDescRetrieve_EmptyAgentSearchesAllNamespaces(t *testing.T) {
	_, _, _, eng := newTestDeps(t)
	ctx := context.Background()
	_, err := eng.Store(ctx, "fact-1", []byte("hello world"), memory.StoreOptions{Namespace: "project"})
	require.NoError(t, err)

	d := NewDescRetriever(eng)
	hits, err := d.Retrieve(ctx, "", "hello world", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "fact-1", hits[0].Key)
}
