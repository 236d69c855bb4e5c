// Package risk turns a ten-dimension score vector into a paper-trading
// decision: a weighted 0-100 score, an absolute per-dimension veto, and a
// position-size tier.
package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Config holds the scorer's thresholds and weight table.
type Config struct {
	Weights    domain.WeightTable
	VetoFloor  float64 // any dimension strictly below this vetoes the trade
	Conviction float64 // score >= Conviction -> CONVICTION
	Standard   float64 // score >= Standard   -> STANDARD
	Minimum    float64 // score >= Minimum    -> MINIMUM, below -> NO_TRADE
}

// DefaultConfig returns the framework thresholds: veto below 4, tiers at
// 80/85/90.
func DefaultConfig() Config {
	return Config{
		Weights:    domain.DefaultWeights(),
		VetoFloor:  4,
		Conviction: 90,
		Standard:   85,
		Minimum:    80,
	}
}

// Validate checks the weight table and that the tier thresholds are ordered.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if c.VetoFloor < domain.MinScore || c.VetoFloor > domain.MaxScore {
		return fmt.Errorf("risk: veto floor %v outside [0,10]", c.VetoFloor)
	}
	if !(c.Minimum <= c.Standard && c.Standard <= c.Conviction) {
		return fmt.Errorf("risk: tiers must satisfy minimum <= standard <= conviction (got %v, %v, %v)",
			c.Minimum, c.Standard, c.Conviction)
	}
	if c.Minimum < 0 || c.Conviction > 100 {
		return fmt.Errorf("risk: tiers must lie within [0,100]")
	}
	return nil
}

// Scorer is a pure function object: Score has no side effects and performs no
// I/O, so one Scorer may be shared freely.
type Scorer struct {
	cfg        Config
	weights    map[domain.Dimension]decimal.Decimal
	conviction decimal.Decimal
	standard   decimal.Decimal
	minimum    decimal.Decimal
}

// NewScorer validates cfg and returns a Scorer. A weight table that does not
// sum to exactly 1.0 is rejected here rather than normalised.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	weights := make(map[domain.Dimension]decimal.Decimal, len(cfg.Weights))
	for d, w := range cfg.Weights {
		weights[d] = decimal.NewFromFloat(w)
	}
	return &Scorer{
		cfg:        cfg,
		weights:    weights,
		conviction: decimal.NewFromFloat(cfg.Conviction),
		standard:   decimal.NewFromFloat(cfg.Standard),
		minimum:    decimal.NewFromFloat(cfg.Minimum),
	}, nil
}

var ten = decimal.NewFromInt(10)

// Score computes the Decision for v.
//
// The weighted total is sum(score*weight)*10. Tiers compare the exact total;
// WeightedScore reports it rounded to two decimals. The veto
// scan is independent of the total: the first dimension (in framework order)
// scoring below the floor vetoes the trade whatever the total. Missing
// dimensions score 0. Scores are not clamped.
func (s *Scorer) Score(v domain.ScoreVector) domain.Decision {
	total := decimal.Zero
	var (
		vetoed bool
		reason string
	)
	for _, d := range domain.Dimensions {
		score := v.Get(d)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			score = 0
		}
		total = total.Add(decimal.NewFromFloat(score).Mul(s.weights[d]))

		if !vetoed && score < s.cfg.VetoFloor {
			vetoed = true
			reason = fmt.Sprintf("dimension '%s' score is %s (< %s)", d, formatScore(score), formatScore(s.cfg.VetoFloor))
		}
	}
	raw := total.Mul(ten)

	dec := domain.Decision{
		WeightedScore: raw.Round(2).InexactFloat64(),
		Vetoed:        vetoed,
		VetoReason:    reason,
	}
	if vetoed {
		dec.Decision = domain.DecisionVeto
		dec.SizeCategory = domain.SizeNone
		return dec
	}
	dec.Decision, dec.SizeCategory = s.tier(raw)
	return dec
}

// Tier maps a weighted score to a decision and size, ignoring the veto.
func (s *Scorer) Tier(score float64) (domain.DecisionKind, domain.SizeCategory) {
	return s.tier(decimal.NewFromFloat(score))
}

func (s *Scorer) tier(score decimal.Decimal) (domain.DecisionKind, domain.SizeCategory) {
	switch {
	case score.GreaterThanOrEqual(s.conviction):
		return domain.DecisionTrade, domain.SizeConviction
	case score.GreaterThanOrEqual(s.standard):
		return domain.DecisionTrade, domain.SizeStandard
	case score.GreaterThanOrEqual(s.minimum):
		return domain.DecisionTrade, domain.SizeMinimum
	default:
		return domain.DecisionNoTrade, domain.SizeNone
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
