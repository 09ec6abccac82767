package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is the queue cap; once exceeded, the oldest entries
// are dropped to keep the newest DefaultMaxEntries.
const DefaultMaxEntries = 100

// Queue is a bounded, disk-persisted retry queue. All mutating methods
// persist the new state atomically before returning.
type Queue struct {
	mu         sync.Mutex
	filePath   string
	failureLog string
	maxEntries int
	entries    map[string]*Entry
}

// NewQueue opens (or initializes) a queue backed by files under dir.
func NewQueue(dir string, maxEntries int) (*Queue, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("feedback: failed to create queue dir: %w", err)
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	q := &Queue{
		filePath:   filepath.Join(dir, "feedback-queue.json"),
		failureLog: filepath.Join(dir, "feedback-failures.log"),
		maxEntries: maxEntries,
		entries:    make(map[string]*Entry),
	}
	if err := q.load(); err != nil {
		return nil, fmt.Errorf("feedback: failed to load queue: %w", err)
	}
	return q, nil
}

// Enqueue appends a new entry for payload and persists the queue,
// dropping the oldest entry if the cap is exceeded.
func (q *Queue) Enqueue(payload map[string]any) (*Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := &Entry{
		ID:          uuid.New().String(),
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
		NextAttempt: time.Now().UTC(),
	}
	q.entries[entry.ID] = entry
	q.evictOldestLocked()

	if err := q.persistLocked(); err != nil {
		delete(q.entries, entry.ID)
		return nil, err
	}
	return entry, nil
}

// evictOldestLocked trims the queue down to maxEntries, keeping the
// newest (by CreatedAt) entries. Caller must hold q.mu.
func (q *Queue) evictOldestLocked() {
	if len(q.entries) <= q.maxEntries {
		return
	}
	all := q.sortedByAgeLocked()
	excess := len(all) - q.maxEntries
	for _, e := range all[:excess] {
		delete(q.entries, e.ID)
	}
}

func (q *Queue) sortedByAgeLocked() []*Entry {
	out := make([]*Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the current entry count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a snapshot of the queued entries, oldest first.
func (q *Queue) Entries() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sortedByAgeLocked()
}

func (q *Queue) load() error {
	content, err := os.ReadFile(q.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var entries []*Entry
	if err := json.Unmarshal(content, &entries); err != nil {
		return fmt.Errorf("feedback queue file corrupted: %w", err)
	}
	for _, e := range entries {
		q.entries[e.ID] = e
	}
	return nil
}

// persistLocked writes the queue via temp-file-then-rename. Caller must
// hold q.mu.
func (q *Queue) persistLocked() error {
	content, err := json.MarshalIndent(q.sortedByAgeLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feedback queue: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(q.filePath), ".feedback-queue-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmpPath, q.filePath)
}

// appendFailureLocked writes one terminal-failure line and removes the
// entry from the in-memory queue (the caller persists afterward). Caller
// must hold q.mu.
func (q *Queue) appendFailureLocked(e *Entry, reason string) error {
	line := fmt.Sprintf("%s id=%s attempts=%d age=%s reason=%s\n",
		time.Now().UTC().Format(time.RFC3339), e.ID, e.Attempts, time.Since(e.CreatedAt), reason)

	f, err := os.OpenFile(q.failureLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open failure log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write failure log: %w", err)
	}
	delete(q.entries, e.ID)
	return nil
}
