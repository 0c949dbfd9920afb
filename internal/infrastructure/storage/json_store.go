// Package storage keeps the processed history and the draft index between runs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/pkg/atomicfile"
)

const (
	historyFile = "processed.json"
	draftsFile  = "pending.json"
)

// JSONStore keeps each record as one JSON document rewritten whole on every save.
type JSONStore struct {
	dir            string
	fingerprintCap int
	titleCap       int
}

var _ ports.StateStore = (*JSONStore)(nil)

// NewJSONStore stores documents in dir. Zero caps fall back to the history defaults.
func NewJSONStore(dir string, fingerprintCap, titleCap int) *JSONStore {
	return &JSONStore{dir: dir, fingerprintCap: fingerprintCap, titleCap: titleCap}
}

// LoadHistory returns an empty history when the file does not exist yet.
func (s *JSONStore) LoadHistory(_ context.Context) (*domain.History, error) {
	history := domain.NewHistory(s.fingerprintCap, s.titleCap)
	found, err := s.read(historyFile, history)
	if err != nil {
		return nil, err
	}
	if found {
		history.SetCaps(s.fingerprintCap, s.titleCap)
	}
	return history, nil
}

// SaveHistory replaces the history document.
func (s *JSONStore) SaveHistory(_ context.Context, history *domain.History) error {
	if history == nil {
		return errors.New("save history: nil history")
	}
	return s.write(historyFile, history)
}

// LoadDrafts returns an empty index when the file does not exist yet.
func (s *JSONStore) LoadDrafts(_ context.Context) (*domain.DraftIndex, error) {
	index := &domain.DraftIndex{}
	if _, err := s.read(draftsFile, index); err != nil {
		return nil, err
	}
	return index, nil
}

// SaveDrafts replaces the draft index document.
func (s *JSONStore) SaveDrafts(_ context.Context, index *domain.DraftIndex) error {
	if index == nil {
		return errors.New("save drafts: nil index")
	}
	return s.write(draftsFile, index)
}

// Close is a no-op; every save is already on disk.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) read(name string, v any) (bool, error) {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *JSONStore) write(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := atomicfile.Write(path, raw, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
