package research

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrSessionNotFound is returned when no saved session has the given id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists session state between requests.
type SessionStore interface {
	Save(s *State) error
	Load(id string) (*State, error)
	List() ([]string, error)
}

// FileSessionStore keeps one JSON file per session under a directory.
type FileSessionStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileSessionStore stores sessions under dir.
func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{dir: dir}
}

func (f *FileSessionStore) path(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(f.dir, id+".json"), nil
}

// Save writes s atomically.
func (f *FileSessionStore) Save(s *State) error {
	path, err := f.path(s.ID)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a saved session.
func (f *FileSessionStore) Load(id string) (*State, error) {
	path, err := f.path(id)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// List returns saved session ids in lexical order.
func (f *FileSessionStore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		ids = append(ids, base[:len(base)-len(".json")])
	}
	sort.Strings(ids)
	return ids, nil
}
