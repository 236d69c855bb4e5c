// Package file implements the ledger store as a JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// LedgerStore keeps the ledger as a pretty-printed JSON array. Save writes a
// temporary file in the same directory and renames it over the target, so a
// crash mid-write never leaves a truncated ledger.
type LedgerStore struct {
	mu   sync.Mutex
	path string
}

// NewLedgerStore creates a store at path. The file need not exist yet.
func NewLedgerStore(path string) *LedgerStore {
	return &LedgerStore{path: path}
}

// Load reads the full ledger. A missing or empty file is an empty ledger.
func (s *LedgerStore) Load(_ context.Context) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: read ledger %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []domain.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("file: decode ledger %s: %w", s.path, err)
	}
	return entries, nil
}

// Save replaces the ledger file with entries.
func (s *LedgerStore) Save(_ context.Context, entries []domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode ledger: %w", err)
	}
	if err := WriteAtomic(s.path, data); err != nil {
		return fmt.Errorf("file: write ledger: %w", err)
	}
	return nil
}

// WriteAtomic writes data to path via a temp file and rename, creating parent
// directories as needed.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var _ domain.LedgerStore = (*LedgerStore)(nil)
