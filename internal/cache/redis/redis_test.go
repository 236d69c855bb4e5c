package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Client{rdb: rdb}, mr
}

type countingSource struct {
	mu      sync.Mutex
	calls   int
	candles []domain.Candle
	err     error
}

func (s *countingSource) Candles(_ context.Context, _, _ string, _ int) ([]domain.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.candles, s.err
}

func sampleCandles() []domain.Candle {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Candle{
		{Time: ts, Open: 100, High: 102, Low: 99, Close: 101, Volume: 5},
		{Time: ts.Add(time.Hour), Open: 101, High: 103, Low: 100, Close: 102, Volume: 7},
	}
}

func TestCandleCacheMissThenHit(t *testing.T) {
	c, mr := newTestClient(t)
	src := &countingSource{candles: sampleCandles()}
	cc := NewCandleCache(c, src, 5*time.Minute, discard)
	ctx := context.Background()

	first, err := cc.Candles(ctx, "BTCUSDT", "1h", 20)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	key := candleKey("BTCUSDT", "1h", 20)
	if !mr.Exists(key) {
		t.Fatalf("miss did not populate %s", key)
	}
	if ttl := mr.TTL(key); ttl != 5*time.Minute {
		t.Fatalf("TTL = %v, want 5m", ttl)
	}

	second, err := cc.Candles(ctx, "BTCUSDT", "1h", 20)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
	if len(second) != len(first) || second[1].Close != 102 || !second[0].Time.Equal(first[0].Time) {
		t.Fatalf("cached candles = %+v", second)
	}

	mr.FastForward(6 * time.Minute)
	if _, err := cc.Candles(ctx, "BTCUSDT", "1h", 20); err != nil {
		t.Fatalf("after expiry: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source called %d times after expiry, want 2", src.calls)
	}
}

func TestCandleCacheUndecodableEntryFallsThrough(t *testing.T) {
	c, mr := newTestClient(t)
	key := candleKey("ETHUSDT", "1h", 20)
	if err := mr.Set(key, "not json"); err != nil {
		t.Fatal(err)
	}
	src := &countingSource{candles: sampleCandles()}

	got, err := NewCandleCache(c, src, time.Minute, discard).Candles(context.Background(), "ETHUSDT", "1h", 20)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if src.calls != 1 || len(got) != 2 {
		t.Fatalf("calls = %d, candles = %d", src.calls, len(got))
	}
	raw, err := mr.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	var stored []domain.Candle
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || len(stored) != 2 {
		t.Fatalf("entry not replaced: %q (%v)", raw, err)
	}
}

func TestCandleCacheDoesNotStoreEmpty(t *testing.T) {
	c, mr := newTestClient(t)
	src := &countingSource{}
	cc := NewCandleCache(c, src, time.Minute, discard)

	for i := 0; i < 2; i++ {
		got, err := cc.Candles(context.Background(), "SOLUSDT", "1h", 20)
		if err != nil || len(got) != 0 {
			t.Fatalf("Candles = %v, %v", got, err)
		}
	}
	if mr.Exists(candleKey("SOLUSDT", "1h", 20)) {
		t.Fatal("empty result was cached")
	}
	if src.calls != 2 {
		t.Fatalf("source called %d times, want 2", src.calls)
	}
}

func TestCandleCacheSourceError(t *testing.T) {
	c, _ := newTestClient(t)
	boom := errors.New("binance down")
	_, err := NewCandleCache(c, &countingSource{err: boom}, time.Minute, discard).
		Candles(context.Background(), "BTCUSDT", "1h", 20)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestLockContention(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "ledger", time.Minute)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if ttl := mr.TTL(lockKey("ledger")); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}
	if _, err := lm.Acquire(ctx, "ledger", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("second Acquire err = %v, want ErrLockHeld", err)
	}

	unlock()
	unlock()
	if mr.Exists(lockKey("ledger")) {
		t.Fatal("unlock left the key behind")
	}
	again, err := lm.Acquire(ctx, "ledger", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after unlock: %v", err)
	}
	again()
}

func TestUnlockKeepsNewerHolder(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)

	unlock, err := lm.Acquire(context.Background(), "ledger", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// The first holder's lease lapses and another process takes the lock.
	mr.FastForward(2 * time.Second)
	if err := mr.Set(lockKey("ledger"), "other-holder"); err != nil {
		t.Fatal(err)
	}

	unlock()
	got, err := mr.Get(lockKey("ledger"))
	if err != nil || got != "other-holder" {
		t.Fatalf("lock value = %q, %v; stale unlock released the newer holder", got, err)
	}
}

func TestDecisionStreamAppend(t *testing.T) {
	c, mr := newTestClient(t)
	ds := NewDecisionStream(c)
	ctx := context.Background()

	for _, p := range []string{`{"decision":"TRADE"}`, `{"decision":"VETO"}`} {
		if err := ds.Append(ctx, "decisions", []byte(p)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := mr.Stream("decisions")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("stream has %d entries, want 2", len(entries))
	}
	want := []string{"payload", `{"decision":"VETO"}`}
	if got := entries[1].Values; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("second entry = %v, want %v", got, want)
	}
}
