package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dimension names one axis of the ten-dimension risk framework.
type Dimension string

const (
	InformationEdge     Dimension = "information_edge"
	SourceQuality       Dimension = "source_quality"
	MarketEfficiency    Dimension = "market_efficiency"
	TimeHorizon         Dimension = "time_horizon"
	DownsideProtection  Dimension = "downside_protection"
	CrossValidation     Dimension = "cross_validation"
	HistoricalAccuracy  Dimension = "historical_accuracy"
	LiquidityExecution  Dimension = "liquidity_execution"
	ConsensusDivergence Dimension = "consensus_divergence"
	EventCatalyst       Dimension = "event_catalyst"
)

// Dimensions lists every dimension in framework order. Scans that must be
// deterministic (veto reason, audit output) iterate this slice.
var Dimensions = []Dimension{
	InformationEdge,
	SourceQuality,
	MarketEfficiency,
	TimeHorizon,
	DownsideProtection,
	CrossValidation,
	HistoricalAccuracy,
	LiquidityExecution,
	ConsensusDivergence,
	EventCatalyst,
}

const (
	MinScore = 0
	MaxScore = 10
)

// ScoreVector holds one score in [0,10] per dimension. A missing key reads as
// zero.
type ScoreVector map[Dimension]float64

// Get returns the score for d, or 0 when absent.
func (v ScoreVector) Get(d Dimension) float64 {
	return v[d]
}

// With returns a copy of v with the given overrides applied.
func (v ScoreVector) With(overrides ScoreVector) ScoreVector {
	out := make(ScoreVector, len(Dimensions))
	for k, s := range v {
		out[k] = s
	}
	for k, s := range overrides {
		out[k] = s
	}
	return out
}

// Complete returns a copy of v holding all ten dimensions, filling absent
// ones with zero.
func (v ScoreVector) Complete() ScoreVector {
	out := make(ScoreVector, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = v[d]
	}
	return out
}

// Validate reports the first unknown dimension or out-of-range score.
func (v ScoreVector) Validate() error {
	for d, s := range v {
		if !d.Known() {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidScore, d)
		}
		if s < MinScore || s > MaxScore {
			return fmt.Errorf("%w: %s=%v", ErrInvalidScore, d, s)
		}
	}
	return nil
}

// Known reports whether d is one of the ten framework dimensions.
func (d Dimension) Known() bool {
	for _, k := range Dimensions {
		if k == d {
			return true
		}
	}
	return false
}

// WeightTable maps every dimension to its weight. Weights must sum to 1.0.
type WeightTable map[Dimension]float64

// DefaultWeights returns the framework weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		InformationEdge:     0.18,
		SourceQuality:       0.12,
		MarketEfficiency:    0.10,
		TimeHorizon:         0.08,
		DownsideProtection:  0.15,
		CrossValidation:     0.12,
		HistoricalAccuracy:  0.05,
		LiquidityExecution:  0.07,
		ConsensusDivergence: 0.08,
		EventCatalyst:       0.05,
	}
}

// Validate checks that the table covers exactly the ten dimensions with
// non-negative weights summing to exactly 1.0. The sum is computed in decimal
// so 0.18+0.12+... is not subject to binary rounding.
func (w WeightTable) Validate() error {
	if len(w) != len(Dimensions) {
		return fmt.Errorf("%w: expected %d dimensions, got %d", ErrInvalidWeights, len(Dimensions), len(w))
	}
	sum := decimal.Zero
	for _, d := range Dimensions {
		weight, ok := w[d]
		if !ok {
			return fmt.Errorf("%w: missing dimension %s", ErrInvalidWeights, d)
		}
		if weight < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidWeights, d)
		}
		sum = sum.Add(decimal.NewFromFloat(weight))
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: weights sum to %s, want 1", ErrInvalidWeights, sum.String())
	}
	return nil
}
