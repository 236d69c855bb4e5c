package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// maxBodyBytes caps a Gamma response; an events page is well under this.
const maxBodyBytes = 16 << 20

// GammaClient reads open events from the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a client rooted at baseURL, e.g.
// "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetEvents returns one page of open events, each carrying its sub-markets.
func (g *GammaClient) GetEvents(ctx context.Context, limit, offset int) ([]APIEvent, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
		"active": {"true"},
		"closed": {"false"},
	}
	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	return events, nil
}

// GetCandidates returns one page of open events converted to candidates.
func (g *GammaClient) GetCandidates(ctx context.Context, limit, offset int) ([]domain.Candidate, error) {
	events, err := g.GetEvents(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(events))
	for i := range events {
		out = append(out, events[i].ToCandidate())
	}
	return out, nil
}

func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx responses to domain sentinel errors, quoting
// at most the first 256 bytes of the body.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := strings.TrimSpace(string(body))
	if len(bodyStr) > 256 {
		bodyStr = bodyStr[:256] + "..."
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
