// Package state provides the file-backed key/value store that persists the
// session across process restarts.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
)

// FileStore implements session.StateStore on a single JSON file.
// It provides atomic writes (write-tmp-then-rename with fsync), automatic
// backups, and file locking (flock for cross-process, mutex for in-process).
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a new FileStore for the given file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Get retrieves a value. ok is false when the key is absent.
// An unparseable file is an error; callers treat it as corrupt state.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, false, err
	}
	value, ok := entries[key]
	return value, ok, nil
}

// Set stores a value, rewriting the file atomically.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadOrEmpty()
	entries[key] = value
	return s.save(entries)
}

// Delete removes a key. Deleting an absent key is not an error; deleting
// from an unparseable file rewrites it from scratch, which is how corrupt
// state heals.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadOrEmpty()
	delete(entries, key)
	return s.save(entries)
}

// load reads and parses the store file.
// A missing file yields an empty map.
func (s *FileStore) load() (map[string][]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]byte{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	// Warn if the file has permissions more open than 0600: it holds a
	// bearer credential. Skip on Windows where Unix permission bits are
	// not supported.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			mode := info.Mode().Perm()
			if mode&0077 != 0 { // group or other has access
				s.logger.Warn("session state file has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var entries map[string][]byte
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if entries == nil {
		entries = map[string][]byte{}
	}
	return entries, nil
}

// loadOrEmpty is load for write paths: an unparseable file is replaced by
// an empty map instead of blocking the write.
func (s *FileStore) loadOrEmpty() map[string][]byte {
	entries, err := s.load()
	if err != nil {
		s.logger.Warn("unreadable state file, rewriting from scratch",
			"path", s.path, "error", err)
		return map[string][]byte{}
	}
	return entries
}

// save writes the entries to disk atomically.
//
// The write sequence is:
//  1. Acquire flock on path+".lock" (in-process mutex is held by callers)
//  2. Copy current file to path+".bak" (skipped if no current file)
//  3. Marshal entries as indented JSON
//  4. Write to path+".tmp" with 0600 permissions and fsync
//  5. Rename path+".tmp" -> path
func (s *FileStore) save(entries map[string][]byte) error {
	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	if currentData, readErr := os.ReadFile(s.path); readErr == nil {
		bakPath := s.path + ".bak"
		if writeErr := os.WriteFile(bakPath, currentData, 0600); writeErr != nil {
			s.logger.Warn("failed to create backup", "error", writeErr)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	// Ensure 0600 after rename: the token must stay private to the user.
	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on state file", "error", err)
	}
	return nil
}

// writeAtomic performs the tmp -> fsync -> rename sequence.
func (s *FileStore) writeAtomic(data []byte) error {
	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
