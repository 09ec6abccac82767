package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHyperedge_ReturnsEdgeByID(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	id, err := s.AddHyperedge([]string{a}, []string{b}, 0.5, 0.5, nil)
	require.NoError(t, err)

	edge, err := s.GetHyperedge(id)
	require.NoError(t, err)
	assert.Equal(t, id, edge.ID)
}

func TestGetHyperedge_UnknownReturnsError(t *testing.T) {
	s := New()
	_, err := s.GetHyperedge("missing")
	assert.ErrorIs(t, err, ErrEdgeNotFound)
}

func TestStats_ReportsCountsAndAverages(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	c := addTestNode(t, s, "c")
	_, err := s.AddHyperedge([]string{a}, []string{b}, 1.0, 0.5, nil)
	require.NoError(t, err)
	_, err = s.AddHyperedge([]string{b}, []string{c}, 0.5, 0.5, nil)
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.InDelta(t, 0.75, stats.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.5, stats.AverageStrength, 1e-9)
}

func TestExpand_DeduplicatesAcrossFrontier(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	c := addTestNode(t, s, "c")
	edgeID, err := s.AddHyperedge([]string{a, b}, []string{c}, 1.0, 1.0, nil)
	require.NoError(t, err)

	edges, err := s.Expand([]string{a, b}, DirectionOut)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, edgeID, edges[0].ID)
}
