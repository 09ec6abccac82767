package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_PinnedExceedingBudgetFails(t *testing.T) {
	window := NewRollingWindow(nil)
	pins := NewPinManager(1000)
	require.NoError(t, pins.Add(Pin{AgentID: "a", TokenCount: 500}))
	dag := NewDependencyDAG()
	c := NewComposer(window, pins, dag, nil)

	_, err := c.Compose("", 100, nil)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestCompose_IncludesAllTiersWithinBudget(t *testing.T) {
	window := NewRollingWindow(nil)
	window.Add(WindowEntry{AgentID: "active-1", TokenCount: 10})
	pins := NewPinManager(1000)
	require.NoError(t, pins.Add(Pin{AgentID: "pinned-1", TokenCount: 20}))
	dag := NewDependencyDAG()
	c := NewComposer(window, pins, dag, nil)

	prior := []PriorSolution{{AgentID: "prior-1", TokenCount: 15}}
	view, err := c.Compose("target", 1000, prior)
	require.NoError(t, err)

	assert.Equal(t, []string{"pinned-1"}, view.Pinned.AgentIDs)
	assert.Equal(t, []string{"prior-1"}, view.PriorSolutions.AgentIDs)
	assert.Equal(t, []string{"active-1"}, view.Active.AgentIDs)
	assert.Equal(t, 45, view.TotalTokens)
	assert.InDelta(t, 0.045, view.Utilization, 1e-9)
	assert.Equal(t, 955, view.RemainingBudget)
}

func TestCompose_PriorSolutionsCappedAtTwo(t *testing.T) {
	window := NewRollingWindow(nil)
	pins := NewPinManager(1000)
	dag := NewDependencyDAG()
	c := NewComposer(window, pins, dag, nil)

	prior := []PriorSolution{
		{AgentID: "p1", TokenCount: 1},
		{AgentID: "p2", TokenCount: 1},
		{AgentID: "p3", TokenCount: 1},
	}
	view, err := c.Compose("", 1000, prior)
	require.NoError(t, err)
	assert.Len(t, view.PriorSolutions.AgentIDs, 2)
}

func TestCompose_ActiveTierStopsWhenBudgetExhausted(t *testing.T) {
	window := NewRollingWindow(nil)
	window.Add(WindowEntry{AgentID: "a", TokenCount: 50})
	window.Add(WindowEntry{AgentID: "b", TokenCount: 60})
	pins := NewPinManager(1000)
	dag := NewDependencyDAG()
	c := NewComposer(window, pins, dag, nil)

	view, err := c.Compose("", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, view.Active.AgentIDs)
}

func TestCompose_ArchivedTierIsZeroTokenReferences(t *testing.T) {
	window := NewRollingWindow(PhaseCapacity{"phase": 1})
	window.SetPhase("phase")
	window.Add(WindowEntry{AgentID: "a", TokenCount: 5})
	window.Add(WindowEntry{AgentID: "b", TokenCount: 5}) // evicts a

	pins := NewPinManager(1000)
	dag := NewDependencyDAG()
	c := NewComposer(window, pins, dag, nil)

	view, err := c.Compose("", 1000, nil)
	require.NoError(t, err)
	assert.Len(t, view.Archived.AgentIDs, 1)
	assert.Equal(t, 0, view.Archived.TokenTotal)
}

func TestCompose_DependenciesOrderedFirstInActiveTier(t *testing.T) {
	window := NewRollingWindow(nil)
	window.Add(WindowEntry{AgentID: "writer", TokenCount: 1})
	window.Add(WindowEntry{AgentID: "researcher", TokenCount: 1})
	pins := NewPinManager(1000)
	dag := NewDependencyDAG()
	dag.AddDependency("writer", "researcher")
	c := NewComposer(window, pins, dag, nil)

	view, err := c.Compose("writer", 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"researcher", "writer"}, view.Active.AgentIDs)
}
