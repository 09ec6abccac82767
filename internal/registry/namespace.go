package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidNamespace mirrors the memory engine's root-namespace grammar
// violations, kept local so the registry doesn't need to import the
// memory package.
var ErrInvalidNamespace = errors.New("invalid namespace")

var rootNamespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// NamespaceEntry records the first time a root namespace was seen.
type NamespaceEntry struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type namespaceData struct {
	Version    int                        `json:"version"`
	Namespaces map[string]*NamespaceEntry `json:"namespaces"`
}

// NamespaceRegistry is additive bookkeeping over the memory engine's root
// namespaces: it does not gate or validate store/retrieve calls (the
// memory engine owns the namespace grammar and orphan-prevention
// invariant) but gives every root namespace a stable UUID for future
// migration and lets operators enumerate what namespaces are in use.
//
// Adapted from the teacher's tenant/project registry: same
// load-mutate-atomic-persist shape, reduced to a single flat map since
// this daemon has one tier of "tenant" (the root namespace) rather than
// tenant/team/project.
type NamespaceRegistry struct {
	mu       sync.RWMutex
	filePath string
	data     *namespaceData
}

// NewNamespaceRegistry opens (or initializes) the namespace registry
// backed by a JSON file under baseDir.
func NewNamespaceRegistry(baseDir string) (*NamespaceRegistry, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	r := &NamespaceRegistry{
		filePath: filepath.Join(baseDir, "namespaces.json"),
		data: &namespaceData{
			Version:    1,
			Namespaces: make(map[string]*NamespaceEntry),
		},
	}

	if err := r.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load namespace registry: %w", err)
	}

	return r, nil
}

// EnsureNamespace registers name if it is new and returns its entry.
// Re-registering an existing namespace is a no-op that returns the
// existing entry.
func (r *NamespaceRegistry) EnsureNamespace(name string) (*NamespaceEntry, error) {
	if !rootNamespacePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.data.Namespaces[name]; ok {
		return entry, nil
	}

	entry := &NamespaceEntry{
		UUID:      uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	r.data.Namespaces[name] = entry

	if err := r.persistLocked(); err != nil {
		delete(r.data.Namespaces, name)
		return nil, err
	}
	return entry, nil
}

// ListNamespaces returns every known root namespace entry.
func (r *NamespaceRegistry) ListNamespaces() []*NamespaceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*NamespaceEntry, 0, len(r.data.Namespaces))
	for _, entry := range r.data.Namespaces {
		out = append(out, entry)
	}
	return out
}

func (r *NamespaceRegistry) load() error {
	content, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}
	var data namespaceData
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("namespace registry corrupted: %w", err)
	}
	if data.Namespaces == nil {
		data.Namespaces = make(map[string]*NamespaceEntry)
	}
	r.data = &data
	return nil
}

// persistLocked writes the registry via temp-file-then-rename, the same
// atomic-write pattern used by internal/graphstore and internal/session.
// Caller must hold r.mu.
func (r *NamespaceRegistry) persistLocked() error {
	content, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal namespace registry: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(r.filePath), ".namespaces-*.tmp")
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
	if err := os.Rename(tmpPath, r.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}
