package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alanyoungcy/polypaper/internal/domain"
	"github.com/alanyoungcy/polypaper/internal/store/file"
)

// Snapshotter keeps a local JSON copy of the last scraped candidate list, so
// passes can be replayed without calling upstream.
type Snapshotter struct {
	path string
}

// NewSnapshotter creates a Snapshotter at path.
func NewSnapshotter(path string) *Snapshotter {
	return &Snapshotter{path: path}
}

// Path returns the snapshot location.
func (s *Snapshotter) Path() string {
	return s.path
}

// Save writes candidates to the snapshot file, replacing it atomically.
func (s *Snapshotter) Save(_ context.Context, candidates []domain.Candidate) error {
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := file.WriteAtomic(s.path, data); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", s.path, err)
	}
	return nil
}

// Load reads the snapshot file. A missing snapshot is an error: there is
// nothing to replay.
func (s *Snapshotter) Load(_ context.Context) ([]domain.Candidate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	var out []domain.Candidate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", s.path, err)
	}
	return out, nil
}

// Candidates implements CandidateSource.
func (s *Snapshotter) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	return s.Load(ctx)
}
