// Package store is the durable key-value persistence behind the
// authenticator and the timer runtime.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	json "github.com/goccy/go-json"
)

// Keys used by the application.
const (
	KeyToken         = "token"
	KeyTimers        = "timers"
	KeyActiveTimers  = "activeTimers"
	KeyTimerSessions = "timerSessions"
)

// DefaultFileName is the store file created inside the data directory.
const DefaultFileName = "store.json"

// Tx reads and writes keys inside one Update.
//
// Get decodes the value stored under key into dst and reports whether the
// key existed; dst is left untouched when it did not, so callers pre-fill
// it with their default.
type Tx interface {
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Delete(key string) error
}

// Store persists arbitrary structured values by key. Get, Set and Delete
// each act on their own; Update groups a read-modify-write so that no other
// writer, in this process or another, lands in between. Inside fn only tx
// may be used. When fn returns an error nothing it wrote is kept.
type Store interface {
	Tx
	Update(fn func(tx Tx) error) error
	Flush() error
}

// FileStore keeps the whole key space in one JSON document that several
// processes may share. Reads always come from disk. Every Update holds an
// flock on <path>.lock, re-reads the file, applies fn and writes the result
// atomically (temp file, fsync, rename), so keys written by another process
// survive and a crash never leaves a half-written store behind.
type FileStore struct {
	path string
	lock *flock.Flock

	mu sync.Mutex
}

// Open prepares path, creating its directory when needed. A missing file is
// an empty store; an unreadable one is an error.
func Open(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(key string, dst any) (bool, error) {
	s.mu.Lock()
	values, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	return (&mapTx{values: values}).Get(key, dst)
}

func (s *FileStore) Set(key string, value any) error {
	return s.Update(func(tx Tx) error {
		return tx.Set(key, value)
	})
}

func (s *FileStore) Delete(key string) error {
	return s.Update(func(tx Tx) error {
		return tx.Delete(key)
	})
}

func (s *FileStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	defer s.lock.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	tx := &mapTx{values: values}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.changed {
		return nil
	}
	return s.write(values)
}

// Flush syncs the store directory so the last rename is durable.
func (s *FileStore) Flush() error {
	dir, err := os.Open(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("failed to open store directory: %w", err)
	}
	defer dir.Close()

	if err := dir.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("failed to sync store directory: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode store file %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmpFile := s.path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync store file: %w", err)
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err = os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// mapTx applies reads and writes to a decoded key space.
type mapTx struct {
	values  map[string]json.RawMessage
	changed bool
}

func (t *mapTx) Get(key string, dst any) (bool, error) {
	raw, ok := t.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func (t *mapTx) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	t.values[key] = raw
	t.changed = true
	return nil
}

func (t *mapTx) Delete(key string) error {
	if _, ok := t.values[key]; !ok {
		return nil
	}
	delete(t.values, key)
	t.changed = true
	return nil
}
