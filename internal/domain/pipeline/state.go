package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// StateStore records which steps have been applied. Only steps whose
// outcome leaves no filesystem marker to probe (a clone that later gets
// cleaned up) consult the store; everything else re-checks the real state.
type StateStore interface {
	// Applied reports whether the step was previously marked applied.
	Applied(id StepID) (bool, error)

	// MarkApplied records the step as applied.
	MarkApplied(id StepID) error
}

// MemoryStore is an in-process StateStore for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	applied map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{applied: make(map[string]bool)}
}

// Applied reports whether the step was marked applied.
func (s *MemoryStore) Applied(id StepID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied[id.String()], nil
}

// MarkApplied records the step.
func (s *MemoryStore) MarkApplied(id StepID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied[id.String()] = true
	return nil
}

// stateFile is the YAML shape persisted on disk.
type stateFile struct {
	Applied []string `yaml:"applied"`
}

// FileStore persists applied-step records as YAML. The file is rewritten
// on every mark; a missing or empty file reads as no steps applied.
type FileStore struct {
	fs   ports.FileSystem
	path string

	mu      sync.Mutex
	applied map[string]bool
	loaded  bool
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(fs ports.FileSystem, path string) *FileStore {
	return &FileStore{fs: fs, path: path, applied: make(map[string]bool)}
}

// Applied reports whether the step was marked applied in the file.
func (s *FileStore) Applied(id StepID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}
	return s.applied[id.String()], nil
}

// MarkApplied records the step and rewrites the file.
func (s *FileStore) MarkApplied(id StepID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.applied[id.String()] = true
	return s.save()
}

// load reads the file once per store lifetime. Callers must hold mu.
func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("reading state file: %w", err)
	}
	var file stateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing state file %s: %w", s.path, err)
	}
	for _, id := range file.Applied {
		s.applied[id] = true
	}
	s.loaded = true
	return nil
}

// save rewrites the file. Callers must hold mu.
func (s *FileStore) save() error {
	ids := make([]string, 0, len(s.applied))
	for id := range s.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := yaml.Marshal(stateFile{Applied: ids})
	if err != nil {
		return fmt.Errorf("encoding state file: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := s.fs.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
