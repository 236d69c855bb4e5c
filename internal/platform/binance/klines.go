// Package binance reads public OHLCV candles from the Binance spot REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// DefaultBaseURL is the public spot API root.
const DefaultBaseURL = "https://api.binance.com"

// Client is a klines client. It needs no credentials.
type Client struct {
	client *resty.Client
}

// NewClient creates a Client against baseURL with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	c.SetRetryCount(2)
	c.SetRetryWaitTime(500 * time.Millisecond)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
	})
	return &Client{client: c}
}

// Candles returns up to limit candles for symbol at interval, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   strings.ToUpper(symbol),
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		Get("/api/v3/klines")
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s: %w", symbol, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests || code == 418:
		return nil, fmt.Errorf("binance: klines %s: %w", symbol, domain.ErrRateLimited)
	case code == http.StatusBadRequest:
		// Unknown symbols come back as 400 {"code":-1121,...}.
		return nil, fmt.Errorf("binance: klines %s: %w: %s", symbol, domain.ErrNotFound, resp.String())
	case code < 200 || code >= 300:
		return nil, fmt.Errorf("binance: klines %s: HTTP %d: %s", symbol, code, resp.String())
	}

	candles, err := decodeKlines(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s: %w", symbol, err)
	}
	return candles, nil
}

// decodeKlines maps the positional kline arrays
// [openTime, open, high, low, close, volume, closeTime, ...] to candles.
func decodeKlines(body []byte) ([]domain.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := make([]domain.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: want at least 6 fields, got %d", i, len(row))
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			return nil, fmt.Errorf("row %d: open time: %w", i, err)
		}
		var vals [5]float64
		for j := range vals {
			v, err := decimalField(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("row %d field %d: %w", i, j+1, err)
			}
			vals[j] = v
		}
		out = append(out, domain.Candle{
			Time:   time.UnixMilli(openMs).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}

// decimalField reads a price field, which Binance sends as a string.
func decimalField(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

var _ domain.CandleSource = (*Client)(nil)
