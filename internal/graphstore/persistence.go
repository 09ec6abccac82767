package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// fileLockTimeout bounds how long a mutation waits to acquire the
// whole-file advisory lock before giving up.
const fileLockTimeout = 5 * time.Second

// document is the single-blob on-disk representation: a node array plus
// an edge array, written atomically via temp-file-then-rename.
type document struct {
	Nodes []Node      `json:"nodes"`
	Edges []Hyperedge `json:"edges"`
}

// Save serializes the store to path, holding path+".lock" for the
// duration of the write and swapping in the new file atomically so
// concurrent readers never observe a partial write.
func (s *Store) Save(path string) error {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), fileLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring graph store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("graph store lock busy after %s", fileLockTimeout)
	}
	defer lock.Unlock()

	s.mu.RLock()
	doc := document{
		Nodes: make([]Node, 0, len(s.nodes)),
		Edges: make([]Hyperedge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		doc.Nodes = append(doc.Nodes, *n)
	}
	for _, e := range s.edges {
		doc.Edges = append(doc.Edges, *e)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph store: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("writing graph store temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("swapping graph store file into place: %w", err)
	}
	return nil
}

// Load reads path into a fresh Store. If a stale ".tmp" file exists
// alongside path (left behind by a crash between write and rename), it
// is removed and the stable file is used instead — the rename in Save
// is the commit point, so a lingering temp file never reflects a
// completed write.
func Load(path string) (*Store, error) {
	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); err == nil {
		_ = os.Remove(tmpPath)
	}

	s := New()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading graph store file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph store file corrupted: %w", err)
	}

	for i := range doc.Nodes {
		n := doc.Nodes[i]
		s.nodes[n.ID] = &n
	}
	for i := range doc.Edges {
		e := doc.Edges[i]
		s.edges[e.ID] = &e
		for _, c := range e.Causes {
			s.outEdges[c] = append(s.outEdges[c], e.ID)
		}
		for _, eff := range e.Effects {
			s.inEdges[eff] = append(s.inEdges[eff], e.ID)
		}
	}
	return s, nil
}

// EnsureParentDir creates the directory containing path if absent.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
