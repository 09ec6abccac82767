// Package session persists conversation/workflow sessions as one JSON
// file per session under a configurable base directory, keyed by UUID.
// Writes are atomic (temp file + rename) and retried on failure; reads
// validate the required fields and report corruption distinctly from a
// clean miss.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	maxWriteRetries = 3
	writeBackoff    = 100 * time.Millisecond
)

// Store manages session files under baseDir.
type Store struct {
	baseDir string
}

// NewStore creates (if necessary) baseDir and returns a Store rooted there.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("session: failed to create base dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Create allocates a new session id and persists it.
func (s *Store) Create(agentID, phase string, metadata map[string]any) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Phase:     phase,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists sess, retrying the atomic write up to maxWriteRetries
// times with a fixed backoff before surfacing SessionPersistError.
func (s *Store) Save(sess *Session) error {
	if err := sess.validate(); err != nil {
		return &SessionPersistError{ID: sess.ID, Err: err}
	}

	content, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return &SessionPersistError{ID: sess.ID, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(writeBackoff)
		}
		if lastErr = s.writeAtomic(sess.ID, content); lastErr == nil {
			return nil
		}
	}
	return &SessionPersistError{ID: sess.ID, Err: lastErr}
}

func (s *Store) writeAtomic(id string, content []byte) error {
	tmpFile, err := os.CreateTemp(s.baseDir, "."+id+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.pathFor(id))
}

// Load reads and validates the session for id.
func (s *Store) Load(id string) (*Session, error) {
	content, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &SessionCorruptedError{ID: id, Err: err}
	}

	var sess Session
	if err := json.Unmarshal(content, &sess); err != nil {
		return nil, &SessionCorruptedError{ID: id, Err: err}
	}
	if err := sess.validate(); err != nil {
		return nil, &SessionCorruptedError{ID: id, Err: err}
	}
	return &sess, nil
}

// Delete removes the session file for id, if present.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.pathFor(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListOptions filters and orders List's output.
type ListOptions struct {
	// MaxAge, if non-zero, excludes sessions whose UpdatedAt is older
	// than now-MaxAge.
	MaxAge time.Duration
}

// List scans baseDir for session files, silently skipping any that fail
// to parse or validate, optionally filters by age, and returns the
// survivors sorted by most-recently-updated first.
func (s *Store) List(opts ListOptions) ([]*Session, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("session: failed to list base dir: %w", err)
	}

	var cutoff time.Time
	if opts.MaxAge > 0 {
		cutoff = time.Now().Add(-opts.MaxAge)
	}

	var out []*Session
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		sess, err := s.Load(id)
		if err != nil {
			continue
		}
		if !cutoff.IsZero() && sess.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, sess)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
