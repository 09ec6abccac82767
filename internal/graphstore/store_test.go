package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestNode(t *testing.T, s *Store, label string) string {
	t.Helper()
	id, err := s.AddNode(Node{Type: NodeTypeConcept, Label: label, Namespace: "root"})
	require.NoError(t, err)
	return id
}

func TestAddNode_AssignsID(t *testing.T) {
	s := New()
	id, err := s.AddNode(Node{Type: NodeTypeConcept, Label: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Label)
}

func TestGetNode_UnknownReturnsError(t *testing.T) {
	s := New()
	_, err := s.GetNode("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAddHyperedge_RejectsMissingNodes(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	_, err := s.AddHyperedge([]string{a}, []string{"missing"}, 1, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidHyperedge)
}

func TestAddHyperedge_RejectsOutOfRangeConfidence(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	_, err := s.AddHyperedge([]string{a}, []string{b}, 1.5, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidHyperedge)
}

func TestAddHyperedge_RejectsCycle(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	c := addTestNode(t, s, "c")

	_, err := s.AddHyperedge([]string{a}, []string{b}, 1, 1, nil)
	require.NoError(t, err)
	_, err = s.AddHyperedge([]string{b}, []string{c}, 1, 1, nil)
	require.NoError(t, err)

	_, err = s.AddHyperedge([]string{c}, []string{a}, 1, 1, nil)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestAddHyperedge_MultiSourceMultiTarget(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	c := addTestNode(t, s, "c")
	d := addTestNode(t, s, "d")

	id, err := s.AddHyperedge([]string{a, b}, []string{c, d}, 0.9, 0.8, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	outA, err := s.GetEdges(a, DirectionOut)
	require.NoError(t, err)
	require.Len(t, outA, 1)
	assert.Equal(t, id, outA[0].ID)

	inC, err := s.GetEdges(c, DirectionIn)
	require.NoError(t, err)
	require.Len(t, inC, 1)
}

func TestTraverse_ProducesChainsSortedByConfidence(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")
	c := addTestNode(t, s, "c")

	_, err := s.AddHyperedge([]string{a}, []string{b}, 0.5, 1, nil)
	require.NoError(t, err)
	_, err = s.AddHyperedge([]string{a}, []string{c}, 0.9, 1, nil)
	require.NoError(t, err)

	chains, err := s.Traverse(DefaultTraverseOptions([]string{a}))
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.InDelta(t, 0.9, chains[0].Confidence, 1e-9)
	assert.InDelta(t, 0.5, chains[1].Confidence, 1e-9)
}

func TestTraverse_RespectsMinConfidence(t *testing.T) {
	s := New()
	a := addTestNode(t, s, "a")
	b := addTestNode(t, s, "b")

	_, err := s.AddHyperedge([]string{a}, []string{b}, 0.1, 1, nil)
	require.NoError(t, err)

	opts := DefaultTraverseOptions([]string{a})
	opts.MinConfidence = 0.5
	chains, err := s.Traverse(opts)
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestTraverse_StopsAtMaxDepth(t *testing.T) {
	s := New()
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = addTestNode(t, s, string(rune('a'+i)))
	}
	for i := 0; i < len(ids)-1; i++ {
		_, err := s.AddHyperedge([]string{ids[i]}, []string{ids[i+1]}, 1, 1, nil)
		require.NoError(t, err)
	}

	opts := DefaultTraverseOptions([]string{ids[0]})
	opts.MaxDepth = 2
	chains, err := s.Traverse(opts)
	require.NoError(t, err)
	for _, c := range chains {
		assert.LessOrEqual(t, len(c.EdgeIDs), 2)
	}
}
