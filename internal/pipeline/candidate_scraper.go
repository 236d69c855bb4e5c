package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// CandidateSource supplies the raw candidates for one pass.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]domain.Candidate, error)
}

// CandidateFetcher retrieves one page of candidates from an upstream API.
type CandidateFetcher interface {
	GetCandidates(ctx context.Context, limit, offset int) ([]domain.Candidate, error)
}

// CandidateScraper pages through the upstream event list.
type CandidateScraper struct {
	fetcher  CandidateFetcher
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewCandidateScraper creates a scraper reading pageSize events per request
// for at most maxPages pages. maxPages <= 0 means no page limit.
func NewCandidateScraper(fetcher CandidateFetcher, pageSize, maxPages int, logger *slog.Logger) *CandidateScraper {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CandidateScraper{
		fetcher:  fetcher,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger.With(slog.String("component", "candidate_scraper")),
	}
}

// Run fetches pages until a short page, the page limit, or an error. Events
// seen on an earlier page are dropped so a list shifting under pagination
// does not yield duplicates.
func (s *CandidateScraper) Run(ctx context.Context) ([]domain.Candidate, error) {
	var (
		out    []domain.Candidate
		seen   = make(map[string]struct{})
		offset int
	)

	for page := 0; s.maxPages <= 0 || page < s.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("candidate scraper context cancelled: %w", err)
		}

		batch, err := s.fetcher.GetCandidates(ctx, s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching candidates at offset %d: %w", offset, err)
		}

		for _, c := range batch {
			if c.ID != "" {
				if _, dup := seen[c.ID]; dup {
					continue
				}
				seen[c.ID] = struct{}{}
			}
			out = append(out, c)
		}

		s.logger.Debug("fetched candidate page",
			slog.Int("batch_size", len(batch)),
			slog.Int("total", len(out)),
			slog.Int("offset", offset),
		)

		if len(batch) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	s.logger.Info("candidate scrape complete", slog.Int("total", len(out)))
	return out, nil
}

// Candidates implements CandidateSource.
func (s *CandidateScraper) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	return s.Run(ctx)
}
