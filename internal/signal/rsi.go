// Package signal derives trading signals and score vectors for filtered
// markets. The technical path computes RSI from recent candle closes; markets
// without a mapped trading pair are left to an external estimator.
package signal

import "github.com/alanyoungcy/polypaper/internal/domain"

// DefaultPeriod is the RSI lookback.
const DefaultPeriod = 14

// NeutralRSI is returned when there are too few closes to compute RSI.
const NeutralRSI = 50.0

// RSI computes the relative-strength index over the last period deltas of
// closes, using simple averages of gains and losses. Fewer than period+1
// closes yields NeutralRSI. Zero average loss yields 100.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}
	var gains, losses float64
	n := len(closes)
	for i := n - period; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Thresholds bound the neutral RSI band. RSI strictly below Oversold is BUY,
// strictly above Overbought is SELL.
type Thresholds struct {
	Oversold   float64
	Overbought float64
}

// DefaultThresholds returns the classic 30/70 band.
func DefaultThresholds() Thresholds {
	return Thresholds{Oversold: 30, Overbought: 70}
}

// BaselineScores is the conservative starting vector for a short-horizon,
// high-data-quality crypto market.
func BaselineScores() domain.ScoreVector {
	return domain.ScoreVector{
		domain.InformationEdge:     5,
		domain.SourceQuality:       10,
		domain.MarketEfficiency:    7,
		domain.TimeHorizon:         9,
		domain.DownsideProtection:  6,
		domain.CrossValidation:     6,
		domain.HistoricalAccuracy:  5,
		domain.LiquidityExecution:  9,
		domain.ConsensusDivergence: 5,
		domain.EventCatalyst:       5,
	}
}

// extremeOverrides is applied on top of the baseline when RSI leaves the
// neutral band; the extreme itself is treated as edge and catalyst.
func extremeOverrides() domain.ScoreVector {
	return domain.ScoreVector{
		domain.InformationEdge:     8,
		domain.MarketEfficiency:    9,
		domain.CrossValidation:     8,
		domain.ConsensusDivergence: 9,
		domain.EventCatalyst:       9,
		domain.DownsideProtection:  8,
	}
}

// Classify maps rsi to a signal and the matching score vector.
func Classify(rsi float64, th Thresholds) (domain.Signal, domain.ScoreVector) {
	base := BaselineScores()
	switch {
	case rsi < th.Oversold:
		return domain.SignalBuy, base.With(extremeOverrides())
	case rsi > th.Overbought:
		return domain.SignalSell, base.With(extremeOverrides())
	default:
		return domain.SignalNeutral, base
	}
}
