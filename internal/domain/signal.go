package domain

// Signal is the trading bias derived for a market.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// AnalysisSource names the provider that produced an Analysis.
type AnalysisSource string

const (
	SourceTechnical AnalysisSource = "technical"
	SourceEstimator AnalysisSource = "estimator"
	SourceRandom    AnalysisSource = "random"
)

// Analysis is a provider's opinion about one market: the score vector fed to
// the risk scorer plus the context recorded alongside an approved trade.
type Analysis struct {
	Source    AnalysisSource
	Symbol    string   // trading pair, technical path only
	Signal    Signal
	RSI       *float64 // technical path only
	Scores    ScoreVector
	Rationale string
}
