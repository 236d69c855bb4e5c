package domain

import (
	"context"
	"time"
)

// CandleSource returns recent OHLCV candles for a trading pair, oldest first.
// An empty slice is a valid "no data" answer.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// DecisionStream receives every risk decision made during a pass.
type DecisionStream interface {
	Append(ctx context.Context, stream string, payload []byte) error
}
