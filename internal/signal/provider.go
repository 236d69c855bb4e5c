package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Provider produces an Analysis for a filtered market. Implementations return
// domain.ErrNotApplicable when they do not cover the market and
// domain.ErrNoSignal when upstream data is absent.
type Provider interface {
	Analyze(ctx context.Context, m domain.Market) (domain.Analysis, error)
}

// Prefetcher is implemented by providers that can warm upstream data for a
// whole batch before markets are analysed one at a time.
type Prefetcher interface {
	Prefetch(ctx context.Context, markets []domain.Market)
}

// TechnicalConfig configures the RSI provider.
type TechnicalConfig struct {
	Symbols     SymbolTable
	Interval    string
	Limit       int
	Period      int
	Thresholds  Thresholds
	Concurrency int // prefetch fan-out
}

// DefaultTechnicalConfig returns hourly candles, twenty per request, RSI-14.
func DefaultTechnicalConfig() TechnicalConfig {
	return TechnicalConfig{
		Symbols:     DefaultSymbols(),
		Interval:    "1h",
		Limit:       20,
		Period:      DefaultPeriod,
		Thresholds:  DefaultThresholds(),
		Concurrency: 4,
	}
}

// Technical scores crypto price markets from RSI over recent candles.
type Technical struct {
	candles domain.CandleSource
	cfg     TechnicalConfig
	logger  *slog.Logger

	mu     sync.Mutex
	warmed map[string][]domain.Candle
}

// NewTechnical creates a Technical provider reading candles from src.
func NewTechnical(src domain.CandleSource, cfg TechnicalConfig, logger *slog.Logger) *Technical {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Technical{
		candles: src,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "technical_analyst")),
		warmed:  make(map[string][]domain.Candle),
	}
}

// Prefetch fetches candles for every distinct symbol among markets with a
// bounded fan-out. Failures are logged and left for Analyze to retry, so a
// bad symbol never blocks the others.
func (t *Technical) Prefetch(ctx context.Context, markets []domain.Market) {
	symbols := make([]string, 0)
	seen := make(map[string]struct{})
	for _, m := range markets {
		sym, ok := t.cfg.Symbols.Resolve(m.Slug, m.Title)
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}

	fresh := make(map[string][]domain.Candle, len(symbols))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)
	for _, sym := range symbols {
		g.Go(func() error {
			candles, err := t.candles.Candles(gctx, sym, t.cfg.Interval, t.cfg.Limit)
			if err != nil {
				t.logger.Warn("candle prefetch failed",
					slog.String("symbol", sym),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			fresh[sym] = candles
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	t.mu.Lock()
	t.warmed = fresh
	t.mu.Unlock()
}

// Analyze resolves the market's trading pair, computes RSI, and classifies
// it. Unmapped markets return domain.ErrNotApplicable; an empty candle list
// returns domain.ErrNoSignal.
func (t *Technical) Analyze(ctx context.Context, m domain.Market) (domain.Analysis, error) {
	sym, ok := t.cfg.Symbols.Resolve(m.Slug, m.Title)
	if !ok {
		return domain.Analysis{}, fmt.Errorf("signal: %s: %w", m.Slug, domain.ErrNotApplicable)
	}

	candles, err := t.candlesFor(ctx, sym)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("signal: candles for %s: %w", sym, err)
	}
	if len(candles) == 0 {
		return domain.Analysis{}, fmt.Errorf("signal: %s: %w", sym, domain.ErrNoSignal)
	}

	rsi := RSI(domain.Closes(candles), t.cfg.Period)
	sig, scores := Classify(rsi, t.cfg.Thresholds)

	t.logger.Debug("rsi computed",
		slog.String("symbol", sym),
		slog.Float64("rsi", rsi),
		slog.String("signal", string(sig)),
	)

	return domain.Analysis{
		Source:    domain.SourceTechnical,
		Symbol:    sym,
		Signal:    sig,
		RSI:       &rsi,
		Scores:    scores,
		Rationale: fmt.Sprintf("%s RSI(%d) %.2f", sym, t.cfg.Period, rsi),
	}, nil
}

func (t *Technical) candlesFor(ctx context.Context, sym string) ([]domain.Candle, error) {
	t.mu.Lock()
	candles, ok := t.warmed[sym]
	t.mu.Unlock()
	if ok {
		return candles, nil
	}
	return t.candles.Candles(ctx, sym, t.cfg.Interval, t.cfg.Limit)
}

// Random is a mock estimator that draws every dimension uniformly from the
// integers 0..10. It is deterministic for a given seed.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random provider seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Analyze returns a random score vector with a NEUTRAL signal.
func (r *Random) Analyze(_ context.Context, _ domain.Market) (domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scores := make(domain.ScoreVector, len(domain.Dimensions))
	for _, d := range domain.Dimensions {
		scores[d] = float64(r.rng.IntN(domain.MaxScore + 1))
	}
	return domain.Analysis{
		Source:    domain.SourceRandom,
		Signal:    domain.SignalNeutral,
		Scores:    scores,
		Rationale: "random mock scores",
	}, nil
}

// Chain tries providers in order. A provider returning
// domain.ErrNotApplicable passes the market to the next one; any other result
// is final.
type Chain struct {
	providers []Provider
}

// NewChain builds a Chain over the non-nil providers.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Prefetch forwards to every member that supports it.
func (c *Chain) Prefetch(ctx context.Context, markets []domain.Market) {
	for _, p := range c.providers {
		if pf, ok := p.(Prefetcher); ok {
			pf.Prefetch(ctx, markets)
		}
	}
}

// Analyze returns the first applicable provider's result.
func (c *Chain) Analyze(ctx context.Context, m domain.Market) (domain.Analysis, error) {
	for _, p := range c.providers {
		a, err := p.Analyze(ctx, m)
		if errors.Is(err, domain.ErrNotApplicable) {
			continue
		}
		return a, err
	}
	return domain.Analysis{}, fmt.Errorf("signal: no provider for %s: %w", m.Slug, domain.ErrNotApplicable)
}

var (
	_ Provider   = (*Technical)(nil)
	_ Prefetcher = (*Technical)(nil)
	_ Provider   = (*Random)(nil)
	_ Provider   = (*Chain)(nil)
	_ Prefetcher = (*Chain)(nil)
)
