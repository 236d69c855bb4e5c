package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Archiver uploads point-in-time copies of pass inputs and outputs:
//
//	snapshots/candidates/20260301T120000Z.json
//	snapshots/ledger/2026-03/<pass-id>.jsonl
type Archiver struct {
	writer domain.BlobWriter
	now    func() time.Time
}

// NewArchiver creates an Archiver writing through writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

// ArchiveCandidates uploads the raw candidate list and returns its key.
func (a *Archiver) ArchiveCandidates(ctx context.Context, candidates []domain.Candidate) (string, error) {
	buf, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: archive candidates marshal: %w", err)
	}
	path := fmt.Sprintf("snapshots/candidates/%s.json", a.now().Format("20060102T150405Z"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive candidates upload: %w", err)
	}
	return path, nil
}

// ArchiveLedger uploads the full ledger after a pass as JSONL and returns its
// key. An empty ledger is not uploaded.
func (a *Archiver) ArchiveLedger(ctx context.Context, passID string, entries []domain.LedgerEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	buf, err := marshalJSONL(entries)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive ledger marshal: %w", err)
	}
	path := fmt.Sprintf("snapshots/ledger/%s/%s.jsonl", a.now().Format("2006-01"), passID)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive ledger upload: %w", err)
	}
	return path, nil
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// record per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
