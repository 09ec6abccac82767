package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyDAG_OrdersDependenciesFirst(t *testing.T) {
	d := NewDependencyDAG()
	d.AddDependency("writer", "researcher")

	entries := []WindowEntry{
		{AgentID: "writer", TokenCount: 1},
		{AgentID: "other", TokenCount: 1},
		{AgentID: "researcher", TokenCount: 1},
	}

	ordered := d.OrderByDependencies("writer", entries)
	require := assert.New(t)
	require.Equal("researcher", ordered[0].AgentID)
	require.Equal("writer", ordered[1].AgentID)
	require.Equal("other", ordered[2].AgentID)
}

func TestDependencyDAG_TransitiveDependencies(t *testing.T) {
	d := NewDependencyDAG()
	d.AddDependency("c", "b")
	d.AddDependency("b", "a")

	deps := d.TransitiveDependencies("c")
	assert.Len(t, deps, 2)
	_, hasA := deps["a"]
	_, hasB := deps["b"]
	assert.True(t, hasA)
	assert.True(t, hasB)
}

func TestDependencyDAG_NoDependenciesPreservesInsertionOrder(t *testing.T) {
	d := NewDependencyDAG()
	entries := []WindowEntry{
		{AgentID: "a"},
		{AgentID: "b"},
	}
	ordered := d.OrderByDependencies("a", entries)
	assert.Equal(t, entries, ordered)
}
