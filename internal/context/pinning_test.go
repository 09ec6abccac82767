package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinManager_RejectsOversizedSinglePin(t *testing.T) {
	m := NewPinManager(100)
	err := m.Add(Pin{AgentID: "a", TokenCount: 200})
	assert.ErrorIs(t, err, ErrPinTooLarge)
}

func TestPinManager_EvictsLowestPriorityWhenOverCap(t *testing.T) {
	m := NewPinManager(100)
	require.NoError(t, m.Add(Pin{AgentID: "low", TokenCount: 60, Priority: 1}))
	require.NoError(t, m.Add(Pin{AgentID: "high", TokenCount: 60, Priority: 10}))

	pins := m.Pins()
	require.Len(t, pins, 1)
	assert.Equal(t, "high", pins[0].AgentID)
	assert.LessOrEqual(t, m.TotalTokens(), 100)
}

func TestPinManager_FitsWithoutEviction(t *testing.T) {
	m := NewPinManager(100)
	require.NoError(t, m.Add(Pin{AgentID: "a", TokenCount: 40}))
	require.NoError(t, m.Add(Pin{AgentID: "b", TokenCount: 40}))
	assert.Len(t, m.Pins(), 2)
}
