package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// DefaultLedgerKey is the object key used when none is configured.
const DefaultLedgerKey = "ledger/pnl.json"

// LedgerStore keeps the whole ledger as one JSON object.
type LedgerStore struct {
	reader domain.BlobReader
	writer domain.BlobWriter
	key    string
}

// NewLedgerStore creates a LedgerStore at key.
func NewLedgerStore(reader domain.BlobReader, writer domain.BlobWriter, key string) *LedgerStore {
	if key == "" {
		key = DefaultLedgerKey
	}
	return &LedgerStore{reader: reader, writer: writer, key: key}
}

// Load reads the ledger object. A missing object is an empty ledger.
func (s *LedgerStore) Load(ctx context.Context) ([]domain.LedgerEntry, error) {
	body, err := s.reader.Get(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("s3blob: load ledger: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read ledger: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []domain.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("s3blob: decode ledger: %w", err)
	}
	return entries, nil
}

// Save overwrites the ledger object with entries.
func (s *LedgerStore) Save(ctx context.Context, entries []domain.LedgerEntry) error {
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: encode ledger: %w", err)
	}
	if err := s.writer.Put(ctx, s.key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: save ledger: %w", err)
	}
	return nil
}

var _ domain.LedgerStore = (*LedgerStore)(nil)
