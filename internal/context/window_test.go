package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingWindow_EvictsOldestOnOverflow(t *testing.T) {
	w := NewRollingWindow(PhaseCapacity{"research": 2})
	w.SetPhase("research")

	first := w.Add(WindowEntry{AgentID: "a", TokenCount: 1})
	w.Add(WindowEntry{AgentID: "b", TokenCount: 1})
	w.Add(WindowEntry{AgentID: "c", TokenCount: 1})

	entries := w.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].AgentID)
	assert.Equal(t, "c", entries[1].AgentID)

	archived := w.ArchivedIDs()
	require.Len(t, archived, 1)
	assert.Equal(t, first.ID, archived[0])
}

func TestRollingWindow_DefaultCapacityWhenPhaseUnknown(t *testing.T) {
	w := NewRollingWindow(nil)
	for i := 0; i < 5; i++ {
		w.Add(WindowEntry{AgentID: "a"})
	}
	assert.Len(t, w.Entries(), 5)
}
