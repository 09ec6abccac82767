package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestCreateLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Create("agent-1", "research", map[string]any{"k": "v"})
	require.NoError(t, err)

	loaded, err := s.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "agent-1", loaded.AgentID)
	assert.Equal(t, "research", loaded.Phase)
}

func TestLoad_MissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_CorruptFileReturnsSessionCorruptedError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.baseDir, "bad.json"), []byte("{not json"), 0600))

	_, err := s.Load("bad")
	var corrupted *SessionCorruptedError
	assert.ErrorAs(t, err, &corrupted)
}

func TestLoad_MissingRequiredFieldReturnsSessionCorruptedError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.baseDir, "incomplete.json"), []byte(`{"id":"incomplete"}`), 0600))

	_, err := s.Load("incomplete")
	var corrupted *SessionCorruptedError
	assert.ErrorAs(t, err, &corrupted)
}

func TestSave_RejectsSessionMissingRequiredFields(t *testing.T) {
	s := newTestStore(t)
	err := s.Save(&Session{ID: "x"})
	var persistErr *SessionPersistError
	assert.ErrorAs(t, err, &persistErr)
}

func TestList_SkipsCorruptFilesAndSortsByRecency(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.baseDir, "corrupt.json"), []byte("{not json"), 0600))

	older, err := s.Create("agent-1", "phase", nil)
	require.NoError(t, err)
	older.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Save(older))

	newer, err := s.Create("agent-2", "phase", nil)
	require.NoError(t, err)

	sessions, err := s.List(ListOptions{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, older.ID, sessions[1].ID)
}

func TestList_FiltersByMaxAge(t *testing.T) {
	s := newTestStore(t)
	stale, err := s.Create("agent-1", "phase", nil)
	require.NoError(t, err)
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Save(stale))

	_, err = s.Create("agent-2", "phase", nil)
	require.NoError(t, err)

	sessions, err := s.List(ListOptions{MaxAge: 24 * time.Hour})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "agent-2", sessions[0].AgentID)
}

func TestDelete_RemovesSessionFile(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Create("agent-1", "phase", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(sess.ID))
	_, err = s.Load(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
