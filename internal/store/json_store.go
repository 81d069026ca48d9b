package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore keeps one JSON array file per kind inside a directory.  Writes
// go to a temporary file that is renamed over the target so a crash never
// leaves a truncated array behind.
type JSONStore struct {
	dir   string
	mu    sync.Mutex
	locks map[Kind]*sync.Mutex
}

// NewJSONStore creates the data directory when missing.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONStore{dir: dir, locks: make(map[Kind]*sync.Mutex)}, nil
}

func (s *JSONStore) lockFor(kind Kind) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[kind]
	if !ok {
		l = &sync.Mutex{}
		s.locks[kind] = l
	}
	return l
}

func (s *JSONStore) path(kind Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *JSONStore) Load(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	l := s.lockFor(kind)
	l.Lock()
	defer l.Unlock()
	return s.read(kind)
}

func (s *JSONStore) Save(ctx context.Context, kind Kind, records []json.RawMessage) error {
	l := s.lockFor(kind)
	l.Lock()
	defer l.Unlock()
	return s.write(kind, records)
}

func (s *JSONStore) NextID(ctx context.Context, kind Kind) (uint64, error) {
	records, err := s.Load(ctx, kind)
	if err != nil {
		return 0, err
	}
	max, err := MaxID(records)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s *JSONStore) Update(ctx context.Context, kind Kind, fn UpdateFunc) error {
	l := s.lockFor(kind)
	l.Lock()
	defer l.Unlock()
	records, err := s.read(kind)
	if err != nil {
		return err
	}
	out, err := fn(records)
	if err != nil {
		return err
	}
	return s.write(kind, out)
}

func (s *JSONStore) read(kind Kind) ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.path(kind))
	if errors.Is(err, os.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	if len(b) == 0 {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

func (s *JSONStore) write(kind Kind, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	tmp, err := os.CreateTemp(s.dir, string(kind)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", kind, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", kind, err)
	}
	if err := os.Rename(tmpName, s.path(kind)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", kind, err)
	}
	return nil
}
