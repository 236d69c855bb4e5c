// Package estimator is the client for the external estimator service that
// scores markets the technical path cannot cover. The service returns an
// opinion as a ten-dimension score vector; no probability is computed here.
package estimator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Request is the market context posted to the estimator.
type Request struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Outcomes     []string  `json:"outcomes"`
	Prices       []float64 `json:"prices"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`
	Liquidity    float64   `json:"liquidity"`
}

// Response is the estimator's opinion.
type Response struct {
	Scores    map[string]float64 `json:"scores"`
	Signal    string             `json:"signal,omitempty"`
	Rationale string             `json:"rationale,omitempty"`
}

// Client posts markets to the estimator endpoint.
type Client struct {
	client *resty.Client
	url    string
}

// NewClient creates a Client for the estimator at url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return &Client{client: c, url: url}
}

// Analyze asks the estimator to score m. Missing dimensions are filled with
// zero; unknown dimensions or scores outside [0,10] are rejected with
// domain.ErrInvalidScore.
func (c *Client) Analyze(ctx context.Context, m domain.Market) (domain.Analysis, error) {
	var out Response
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(Request{
			Slug:         m.Slug,
			Title:        m.Title,
			Description:  m.Description,
			Outcomes:     m.Outcomes,
			Prices:       m.Prices,
			EndDate:      m.EndDate,
			DurationDays: m.DurationDays,
			Liquidity:    m.Liquidity,
		}).
		SetResult(&out).
		Post(c.url)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("estimator: analyze %s: %w", m.Slug, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return domain.Analysis{}, fmt.Errorf("estimator: analyze %s: %w", m.Slug, domain.ErrRateLimited)
	case code == http.StatusNotFound || code == http.StatusNoContent:
		return domain.Analysis{}, fmt.Errorf("estimator: analyze %s: %w", m.Slug, domain.ErrNoSignal)
	case code < 200 || code >= 300:
		return domain.Analysis{}, fmt.Errorf("estimator: analyze %s: HTTP %d: %s", m.Slug, code, resp.String())
	}

	scores := make(domain.ScoreVector, len(out.Scores))
	for k, v := range out.Scores {
		scores[domain.Dimension(k)] = v
	}
	if err := scores.Validate(); err != nil {
		return domain.Analysis{}, fmt.Errorf("estimator: analyze %s: %w", m.Slug, err)
	}

	return domain.Analysis{
		Source:    domain.SourceEstimator,
		Signal:    parseSignal(out.Signal),
		Scores:    scores.Complete(),
		Rationale: out.Rationale,
	}, nil
}

func parseSignal(s string) domain.Signal {
	switch domain.Signal(strings.ToUpper(strings.TrimSpace(s))) {
	case domain.SignalBuy:
		return domain.SignalBuy
	case domain.SignalSell:
		return domain.SignalSell
	default:
		return domain.SignalNeutral
	}
}
