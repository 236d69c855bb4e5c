// Package filter narrows raw candidate events to the tradeable subset. Rules
// run in a fixed order and the first failing rule rejects the candidate:
// keyword ban, sub-market structure, liquidity floor, time horizon, and
// settled-price exclusion.
package filter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Reason identifies the rule that rejected a candidate.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonBanned        Reason = "banned_keyword"
	ReasonNoMarket      Reason = "no_market"
	ReasonLowLiquidity  Reason = "low_liquidity"
	ReasonNoEndDate     Reason = "no_end_date"
	ReasonExpired       Reason = "expired"
	ReasonHorizonTooFar Reason = "horizon_too_long"
	ReasonSettledPrice  Reason = "settled_price"
)

// Config holds the filter thresholds and ban list.
type Config struct {
	BanKeywords    []string
	MinLiquidity   float64
	MaxHorizonDays int
	PriceFloor     float64 // a tradeable price must be strictly above this
	PriceCeiling   float64 // and strictly below this
}

// DefaultBanKeywords covers sports leagues, long-horizon political
// nominations, and meme/entertainment categories.
var DefaultBanKeywords = []string{
	"nba", "nfl", "nhl", "mlb", "ncaa", "premier league", "champions league",
	"la liga", "serie a", "bundesliga", "ufc", "formula 1", "world cup",
	"super bowl", "sports",
	"nominee", "nomination", "presidential election", "2028",
	"oscars", "grammy", "eurovision", "box office", "tweets", "meme",
	"pop culture", "celebrity",
}

// DefaultConfig returns the thresholds for the short-horizon strategy.
func DefaultConfig() Config {
	kw := make([]string, len(DefaultBanKeywords))
	copy(kw, DefaultBanKeywords)
	return Config{
		BanKeywords:    kw,
		MinLiquidity:   10000,
		MaxHorizonDays: 45,
		PriceFloor:     0.02,
		PriceCeiling:   0.98,
	}
}

// Validate rejects thresholds that would make the filter meaningless.
func (c Config) Validate() error {
	if c.MinLiquidity < 0 {
		return fmt.Errorf("filter: min_liquidity must be >= 0")
	}
	if c.MaxHorizonDays <= 0 {
		return fmt.Errorf("filter: max_horizon_days must be > 0")
	}
	if c.PriceFloor < 0 || c.PriceCeiling > 1 || c.PriceFloor >= c.PriceCeiling {
		return fmt.Errorf("filter: need 0 <= price_floor < price_ceiling <= 1, got %v/%v", c.PriceFloor, c.PriceCeiling)
	}
	return nil
}

// Verdict is the outcome of filtering one candidate. Market is only
// meaningful when Accepted is true.
type Verdict struct {
	Market   domain.Market
	Accepted bool
	Reason   Reason
	Detail   string
}

func reject(reason Reason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Filter applies Config to candidates. It is safe for concurrent use.
type Filter struct {
	cfg     Config
	banned  []string
	horizon time.Duration
	now     func() time.Time
}

// Option configures a Filter.
type Option func(*Filter)

// WithClock overrides the time source used for horizon checks.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

// New validates cfg and builds a Filter.
func New(cfg Config, opts ...Option) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	banned := make([]string, 0, len(cfg.BanKeywords))
	for _, kw := range cfg.BanKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			banned = append(banned, kw)
		}
	}
	f := &Filter{
		cfg:     cfg,
		banned:  banned,
		horizon: time.Duration(cfg.MaxHorizonDays) * 24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Evaluate runs every rule against c and returns the first rejection, or an
// accepted Verdict carrying the normalised Market.
func (f *Filter) Evaluate(c domain.Candidate) Verdict {
	if kw, ok := f.bannedKeyword(c); ok {
		return reject(ReasonBanned, "matched %q", kw)
	}

	if len(c.Markets) == 0 {
		return reject(ReasonNoMarket, "event has no sub-market")
	}
	sub := c.Markets[0]

	liquidity := ParseAmount(c.Liquidity)
	if liquidity < f.cfg.MinLiquidity {
		return reject(ReasonLowLiquidity, "liquidity %.2f < %.2f", liquidity, f.cfg.MinLiquidity)
	}

	now := f.now()
	end, ok := ParseTime(sub.EndDate)
	if !ok {
		end, ok = ParseTime(c.EndDate)
	}
	if !ok {
		return reject(ReasonNoEndDate, "no resolvable end date")
	}
	if end.Before(now) {
		return reject(ReasonExpired, "ended %s", end.Format(time.RFC3339))
	}
	if end.Sub(now) > f.horizon {
		return reject(ReasonHorizonTooFar, "ends %s, beyond %d days", end.Format(time.RFC3339), f.cfg.MaxHorizonDays)
	}

	prices := ParsePrices(sub.OutcomePrices)
	if !f.hasOpenPrice(prices) {
		return reject(ReasonSettledPrice, "no price strictly inside (%v, %v)", f.cfg.PriceFloor, f.cfg.PriceCeiling)
	}

	outcomes := ParseOutcomes(sub.Outcomes)
	marketPrices := prices
	if len(outcomes) > 0 && len(outcomes) != len(prices) {
		// Unaligned lists cannot be paired by index; keep the labels only.
		marketPrices = nil
	}

	slug := c.Slug
	if slug == "" {
		slug = sub.Slug
	}
	title := c.Title
	if title == "" {
		title = sub.Question
	}

	return Verdict{
		Accepted: true,
		Market: domain.Market{
			Slug:         slug,
			Title:        title,
			Description:  c.Description,
			Liquidity:    liquidity,
			Volume:       ParseAmount(c.Volume),
			Outcomes:     outcomes,
			Prices:       marketPrices,
			EndDate:      end,
			DurationDays: int(math.Round(end.Sub(now).Hours() / 24)),
		},
	}
}

func (f *Filter) bannedKeyword(c domain.Candidate) (string, bool) {
	fields := make([]string, 0, 2+len(c.Tags))
	fields = append(fields, strings.ToLower(c.Title), strings.ToLower(c.Description))
	for _, tag := range c.Tags {
		fields = append(fields, strings.ToLower(tag))
	}
	for _, kw := range f.banned {
		for _, field := range fields {
			if strings.Contains(field, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

func (f *Filter) hasOpenPrice(prices []float64) bool {
	for _, p := range prices {
		if p > f.cfg.PriceFloor && p < f.cfg.PriceCeiling {
			return true
		}
	}
	return false
}

// Accepted pairs a surviving candidate with the market built from it.
type Accepted struct {
	Candidate domain.Candidate
	Market    domain.Market
}

// Rejected pairs a discarded candidate with the rule that discarded it.
type Rejected struct {
	Candidate domain.Candidate
	Reason    Reason
	Detail    string
}

// Pass is the result of filtering a batch, preserving input order.
type Pass struct {
	Accepted []Accepted
	Rejected []Rejected
}

// Survivors returns the candidates that were accepted, in input order.
func (p Pass) Survivors() []domain.Candidate {
	out := make([]domain.Candidate, len(p.Accepted))
	for i, a := range p.Accepted {
		out[i] = a.Candidate
	}
	return out
}

// Apply evaluates every candidate in order.
func (f *Filter) Apply(candidates []domain.Candidate) Pass {
	var p Pass
	for _, c := range candidates {
		v := f.Evaluate(c)
		if v.Accepted {
			p.Accepted = append(p.Accepted, Accepted{Candidate: c, Market: v.Market})
			continue
		}
		p.Rejected = append(p.Rejected, Rejected{Candidate: c, Reason: v.Reason, Detail: v.Detail})
	}
	return p
}
