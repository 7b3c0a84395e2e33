package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageError wraps read/write failures of the settings file. Callers fall
// back to defaults on load errors; on save errors the prior file remains
// authoritative.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("settings %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// fileDoc is the on-disk JSON layout. Enabled rides along with the
// connection parameters so the auto-start flag survives restarts.
type fileDoc struct {
	Settings
	Enabled bool `json:"enabled"`
}

// Store persists Settings as a single JSON record. Single-user,
// single-process: the only coordination is write atomicity.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store { return &Store{path: path} }

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load reads the persisted settings. A missing file yields the defaults with
// no error. A corrupt or unreadable file yields the defaults plus a
// *StorageError so the caller can surface a warning.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return Default(), err
	}
	return doc.Settings, nil
}

// Save validates and then atomically replaces the settings file. The enabled
// flag is carried over from the existing record.
func (s *Store) Save(st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, _ := s.read() // keep prior enabled flag; corrupt file is overwritten
	doc.Settings = st
	return s.write(doc)
}

// Enabled reports the persisted auto-start flag.
func (s *Store) Enabled() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return false, err
	}
	return doc.Enabled, nil
}

// SetEnabled persists the auto-start flag without touching the connection
// parameters.
func (s *Store) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, _ := s.read() // a corrupt record is replaced with defaults
	doc.Enabled = enabled
	return s.write(doc)
}

func (s *Store) read() (fileDoc, error) {
	doc := fileDoc{Settings: Default()}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, &StorageError{Op: "read", Err: err}
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fileDoc{Settings: Default()}, &StorageError{Op: "decode", Err: err}
	}
	return doc, nil
}

// write performs a temp-file-then-rename replace so a crash mid-write never
// corrupts the previous valid record.
func (s *Store) write(doc fileDoc) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return &StorageError{Op: "mkdir", Err: err}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.tmp")
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "rename", Err: err}
	}
	return nil
}
