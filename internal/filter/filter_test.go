package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := New(DefaultConfig(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func validCandidate() domain.Candidate {
	return domain.Candidate{
		ID:          "1",
		Slug:        "bitcoin-above-100k-march",
		Title:       "Bitcoin above 100k on March 20?",
		Description: "Resolves YES if BTC closes above 100k.",
		Tags:        []string{"Crypto", "Bitcoin"},
		Liquidity:   "25000.5",
		Volume:      120000.0,
		Markets: []domain.CandidateMarket{{
			ID:            "m1",
			Question:      "Bitcoin above 100k on March 20?",
			EndDate:       "2026-03-20T12:00:00Z",
			Outcomes:      `["Yes","No"]`,
			OutcomePrices: `["0.42","0.58"]`,
		}},
	}
}

func TestEvaluateAccepts(t *testing.T) {
	f := newTestFilter(t)
	v := f.Evaluate(validCandidate())
	if !v.Accepted {
		t.Fatalf("expected accept, got %s (%s)", v.Reason, v.Detail)
	}
	m := v.Market
	if m.Slug != "bitcoin-above-100k-march" || m.Liquidity != 25000.5 || m.Volume != 120000 {
		t.Fatalf("unexpected market %+v", m)
	}
	if m.DurationDays != 19 {
		t.Fatalf("DurationDays = %d, want 19", m.DurationDays)
	}
	if !reflect.DeepEqual(m.Outcomes, []string{"Yes", "No"}) || !reflect.DeepEqual(m.Prices, []float64{0.42, 0.58}) {
		t.Fatalf("outcomes/prices = %v/%v", m.Outcomes, m.Prices)
	}
}

func TestEvaluateDropsUnalignedPrices(t *testing.T) {
	f := newTestFilter(t)
	tests := []struct {
		name     string
		outcomes string
		prices   string
		wantOut  []string
		wantPx   []float64
	}{
		{"extra price", `["Yes","No"]`, `["0.42","0.50","0.08"]`, []string{"Yes", "No"}, nil},
		{"malformed outcomes keep prices", `not json`, `["0.42","0.58"]`, nil, []float64{0.42, 0.58}},
		{"aligned", `["Up","Down"]`, `["0.3","0.7"]`, []string{"Up", "Down"}, []float64{0.3, 0.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c.Markets[0].Outcomes = tt.outcomes
			c.Markets[0].OutcomePrices = tt.prices
			v := f.Evaluate(c)
			if !v.Accepted {
				t.Fatalf("rejected: %s (%s)", v.Reason, v.Detail)
			}
			if !reflect.DeepEqual(v.Market.Outcomes, tt.wantOut) || !reflect.DeepEqual(v.Market.Prices, tt.wantPx) {
				t.Fatalf("outcomes/prices = %v/%v, want %v/%v", v.Market.Outcomes, v.Market.Prices, tt.wantOut, tt.wantPx)
			}
			if len(v.Market.Outcomes) > 0 && len(v.Market.Prices) > 0 && len(v.Market.Outcomes) != len(v.Market.Prices) {
				t.Fatal("outcomes and prices differ in length")
			}
		})
	}
}

func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Candidate)
		want   Reason
	}{
		{"banned title", func(c *domain.Candidate) { c.Title = "NBA Finals winner" }, ReasonBanned},
		{"banned description", func(c *domain.Candidate) { c.Description = "A Super Bowl prop" }, ReasonBanned},
		{"banned tag", func(c *domain.Candidate) { c.Tags = []string{"Sports"} }, ReasonBanned},
		{"no sub-market", func(c *domain.Candidate) { c.Markets = nil }, ReasonNoMarket},
		{"liquidity below floor", func(c *domain.Candidate) { c.Liquidity = 5000.0 }, ReasonLowLiquidity},
		{"liquidity missing", func(c *domain.Candidate) { c.Liquidity = nil }, ReasonLowLiquidity},
		{"liquidity garbage", func(c *domain.Candidate) { c.Liquidity = "lots" }, ReasonLowLiquidity},
		{"no end date", func(c *domain.Candidate) { c.Markets[0].EndDate = ""; c.EndDate = "" }, ReasonNoEndDate},
		{"unparseable end date", func(c *domain.Candidate) { c.Markets[0].EndDate = "soon" }, ReasonNoEndDate},
		{"ended", func(c *domain.Candidate) { c.Markets[0].EndDate = "2026-02-28T00:00:00Z" }, ReasonExpired},
		{"too far", func(c *domain.Candidate) { c.Markets[0].EndDate = "2026-04-20T00:00:00Z" }, ReasonHorizonTooFar},
		{"settled high", func(c *domain.Candidate) { c.Markets[0].OutcomePrices = `["0.99","0.01"]` }, ReasonSettledPrice},
		{"at bounds", func(c *domain.Candidate) { c.Markets[0].OutcomePrices = `["0.98","0.02"]` }, ReasonSettledPrice},
		{"malformed prices", func(c *domain.Candidate) { c.Markets[0].OutcomePrices = `not json` }, ReasonSettledPrice},
	}
	f := newTestFilter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(&c)
			v := f.Evaluate(c)
			if v.Accepted {
				t.Fatalf("expected rejection %s, got accept", tt.want)
			}
			if v.Reason != tt.want {
				t.Fatalf("reason = %s, want %s (%s)", v.Reason, tt.want, v.Detail)
			}
		})
	}
}

func TestLowLiquidityRejectedEvenWhenOtherwiseValid(t *testing.T) {
	c := validCandidate()
	c.Liquidity = 5000
	v := newTestFilter(t).Evaluate(c)
	if v.Accepted || v.Reason != ReasonLowLiquidity {
		t.Fatalf("got %+v, want low_liquidity rejection", v)
	}
}

func TestRulesShortCircuitInOrder(t *testing.T) {
	c := validCandidate()
	c.Title = "NFL week 1"
	c.Liquidity = 0
	c.Markets[0].EndDate = ""
	v := newTestFilter(t).Evaluate(c)
	if v.Reason != ReasonBanned {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonBanned)
	}
}

func TestEndDateFallsBackToEvent(t *testing.T) {
	c := validCandidate()
	c.Markets[0].EndDate = ""
	c.EndDate = "2026-03-10"
	v := newTestFilter(t).Evaluate(c)
	if !v.Accepted {
		t.Fatalf("expected accept, got %s", v.Reason)
	}
	if v.Market.DurationDays != 9 {
		t.Fatalf("DurationDays = %d, want 9", v.Market.DurationDays)
	}
}

func TestHorizonBoundary(t *testing.T) {
	f := newTestFilter(t)
	c := validCandidate()
	c.Markets[0].EndDate = testNow.Add(45 * 24 * time.Hour).Format(time.RFC3339)
	if v := f.Evaluate(c); !v.Accepted {
		t.Fatalf("exactly 45 days should pass, got %s", v.Reason)
	}
	c.Markets[0].EndDate = testNow.Add(45*24*time.Hour + time.Second).Format(time.RFC3339)
	if v := f.Evaluate(c); v.Reason != ReasonHorizonTooFar {
		t.Fatalf("45 days + 1s: reason = %s", v.Reason)
	}
}

func TestCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLiquidity = 1000
	cfg.BanKeywords = nil
	f, err := New(cfg, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := validCandidate()
	c.Title = "NBA Finals winner"
	c.Liquidity = 5000
	if v := f.Evaluate(c); !v.Accepted {
		t.Fatalf("expected accept with relaxed config, got %s", v.Reason)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PriceFloor, cfg.PriceCeiling = 0.9, 0.1
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for inverted price band")
	}
	cfg = DefaultConfig()
	cfg.MaxHorizonDays = 0
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for zero horizon")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newTestFilter(t)
	low := validCandidate()
	low.Slug, low.Liquidity = "low", 10
	banned := validCandidate()
	banned.Slug, banned.Title = "banned", "Oscars best picture"
	second := validCandidate()
	second.Slug = "second"

	first := f.Apply([]domain.Candidate{validCandidate(), low, banned, second})
	if len(first.Accepted) != 2 || len(first.Rejected) != 2 {
		t.Fatalf("accepted=%d rejected=%d, want 2/2", len(first.Accepted), len(first.Rejected))
	}
	if first.Accepted[0].Market.Slug != "bitcoin-above-100k-march" || first.Accepted[1].Market.Slug != "second" {
		t.Fatalf("order not preserved: %v", first.Survivors())
	}

	again := f.Apply(first.Survivors())
	if len(again.Rejected) != 0 {
		t.Fatalf("second pass rejected %d candidates", len(again.Rejected))
	}
	if !reflect.DeepEqual(again.Survivors(), first.Survivors()) {
		t.Fatal("second pass changed the accepted set")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{12.5, 12.5},
		{"12000", 12000},
		{" 7.25 ", 7.25},
		{42, 42},
		{nil, 0},
		{"n/a", 0},
		{-5.0, 0},
		{true, 0},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePrices(t *testing.T) {
	if got := ParsePrices(`["0.1", 0.9]`); !reflect.DeepEqual(got, []float64{0.1, 0.9}) {
		t.Fatalf("mixed encoding = %v", got)
	}
	for _, raw := range []string{"", "[", `{"a":1}`, `["x"]`, `[true]`} {
		if got := ParsePrices(raw); len(got) != 0 {
			t.Errorf("ParsePrices(%q) = %v, want empty", raw, got)
		}
	}
	if got := ParseOutcomes(`["Up","Down"]`); !reflect.DeepEqual(got, []string{"Up", "Down"}) {
		t.Fatalf("ParseOutcomes = %v", got)
	}
	if got := ParseOutcomes(`[1,2]`); len(got) != 0 {
		t.Fatalf("ParseOutcomes numeric = %v, want empty", got)
	}
}
