package domain

import "time"

// TradeStatus is the lifecycle state of a paper trade. Entries are only ever
// created OPEN; settlement is not tracked here.
type TradeStatus string

const TradeStatusOpen TradeStatus = "OPEN"

// TradeType distinguishes the technical crypto path from event markets scored
// by an estimator.
type TradeType string

const (
	TradeTypeCryptoFast TradeType = "CRYPTO_FAST"
	TradeTypeEvent      TradeType = "EVENT"
)

// LedgerEntry is one persisted, simulated trade.
type LedgerEntry struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	MarketSlug    string       `json:"market_slug"`
	MarketTitle   string       `json:"market_title"`
	Type          TradeType    `json:"type"`
	Signal        Signal       `json:"signal"`
	RSI           *float64     `json:"rsi,omitempty"`
	Decision      DecisionKind `json:"decision"`
	SizeCategory  SizeCategory `json:"size_category"`
	WeightedScore float64      `json:"weighted_score"`
	EntryPrice    float64      `json:"entry_price"`
	Position      string       `json:"position"`
	Status        TradeStatus  `json:"status"`
}
