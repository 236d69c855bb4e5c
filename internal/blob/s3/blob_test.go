package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// memBlob is an in-memory BlobReader/BlobWriter.
type memBlob struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemBlob() *memBlob {
	return &memBlob{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlob) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = b
	m.types[path] = contentType
	return nil
}

func (m *memBlob) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestLedgerStoreMissingObjectIsEmpty(t *testing.T) {
	blob := newMemBlob()
	got, err := NewLedgerStore(blob, blob, "").Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("Load = %v, %v", got, err)
	}
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	blob := newMemBlob()
	s := NewLedgerStore(blob, blob, "paper/pnl.json")
	in := []domain.LedgerEntry{{ID: "1", MarketSlug: "a"}, {ID: "2", MarketSlug: "b"}}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if blob.types["paper/pnl.json"] != "application/json" {
		t.Fatalf("content type = %q", blob.types["paper/pnl.json"])
	}
	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" || out[1].MarketSlug != "b" {
		t.Fatalf("Load = %+v", out)
	}
}

func TestArchiverPaths(t *testing.T) {
	blob := newMemBlob()
	a := NewArchiver(blob)
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 5, 0, time.UTC) }

	path, err := a.ArchiveCandidates(context.Background(), []domain.Candidate{{ID: "e1"}})
	if err != nil {
		t.Fatalf("ArchiveCandidates: %v", err)
	}
	if path != "snapshots/candidates/20260301T123005Z.json" {
		t.Fatalf("path = %s", path)
	}

	path, err = a.ArchiveLedger(context.Background(), "pass-1", []domain.LedgerEntry{{ID: "x"}, {ID: "y"}})
	if err != nil {
		t.Fatalf("ArchiveLedger: %v", err)
	}
	if path != "snapshots/ledger/2026-03/pass-1.jsonl" {
		t.Fatalf("path = %s", path)
	}
	lines := strings.Split(strings.TrimSpace(string(blob.objects[path])), "\n")
	if len(lines) != 2 {
		t.Fatalf("jsonl lines = %d", len(lines))
	}

	if path, err := a.ArchiveLedger(context.Background(), "pass-2", nil); err != nil || path != "" {
		t.Fatalf("empty ledger: %q, %v", path, err)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		ssl  bool
		want string
	}{
		{"https://e2.example.com", false, "https://e2.example.com"},
		{"127.0.0.1:9000", false, "http://127.0.0.1:9000"},
		{"r2.example.com", true, "https://r2.example.com"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.in, tt.ssl); got != tt.want {
			t.Errorf("normaliseEndpoint(%q, %v) = %q, want %q", tt.in, tt.ssl, got, tt.want)
		}
	}
}

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		ok   bool
	}{
		{"complete", ClientConfig{Bucket: "b", Region: "us-east-1", AccessKey: "a", SecretKey: "s"}, true},
		{"default credentials", ClientConfig{Bucket: "b", Region: "us-east-1"}, true},
		{"no bucket", ClientConfig{Region: "us-east-1"}, false},
		{"no region", ClientConfig{Bucket: "b"}, false},
		{"half key pair", ClientConfig{Bucket: "b", Region: "us-east-1", AccessKey: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{"not found", &types.NotFound{}, true},
		{"other", errors.New("access denied"), false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("%s: isNotFound = %v, want %v", tt.name, got, tt.want)
		}
	}
}
