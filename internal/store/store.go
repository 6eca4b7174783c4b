// Package store persists batch state as flat JSON snapshots on disk.
//
// Every snapshot is a single human-inspectable JSON document, rewritten in
// full on each save. Writes go through a temp file and rename so an
// interrupted checkpoint never leaves a truncated snapshot behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const snapshotExtension = ".json"

// Manager reads and writes named snapshots inside one state directory.
type Manager struct {
	dir string
}

// New creates a Manager rooted at dir, creating the directory if needed.
func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the state directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the on-disk path of a named snapshot.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name+snapshotExtension)
}

// Exists reports whether a named snapshot is present.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Load decodes a named snapshot into v. The error wraps fs.ErrNotExist
// when the snapshot has never been written.
func (m *Manager) Load(name string, v any) error {
	data, err := os.ReadFile(m.Path(name))
	if err != nil {
		return fmt.Errorf("could not read snapshot %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode snapshot %s: %w", name, err)
	}
	return nil
}

// Save writes v as the named snapshot, replacing any previous version
// atomically.
func (m *Manager) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode snapshot %s: %w", name, err)
	}

	tmp := m.Path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("could not write snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, m.Path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace snapshot %s: %w", name, err)
	}
	return nil
}
