package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// CandleCache decorates a domain.CandleSource with a short-lived Redis copy
// of each response, stored as JSON at "candles:{symbol}:{interval}:{limit}".
// Cache faults fall through to the source; they never fail a fetch.
type CandleCache struct {
	rdb    *redis.Client
	source domain.CandleSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewCandleCache wraps source with a cache entry lifetime of ttl.
func NewCandleCache(c *Client, source domain.CandleSource, ttl time.Duration, logger *slog.Logger) *CandleCache {
	return &CandleCache{
		rdb:    c.Underlying(),
		source: source,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "candle_cache")),
	}
}

func candleKey(symbol, interval string, limit int) string {
	return "candles:" + symbol + ":" + interval + ":" + strconv.Itoa(limit)
}

// Candles returns cached candles when present, otherwise fetches from the
// source and caches non-empty results.
func (cc *CandleCache) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	key := candleKey(symbol, interval, limit)

	raw, err := cc.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var candles []domain.Candle
		if jerr := json.Unmarshal(raw, &candles); jerr == nil {
			return candles, nil
		}
		cc.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		cc.logger.Warn("candle cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	candles, err := cc.source.Candles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("redis: candle source: %w", err)
	}
	if len(candles) == 0 {
		return candles, nil
	}

	if data, jerr := json.Marshal(candles); jerr == nil {
		if serr := cc.rdb.Set(ctx, key, data, cc.ttl).Err(); serr != nil {
			cc.logger.Warn("candle cache write failed", slog.String("key", key), slog.String("error", serr.Error()))
		}
	}
	return candles, nil
}

var _ domain.CandleSource = (*CandleCache)(nil)
