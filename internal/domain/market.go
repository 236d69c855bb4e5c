package domain

import "time"

// Market is a candidate that survived the market filter. It is immutable once
// built and is passed downstream read-only. When both Outcomes and Prices are
// present they have equal length; the filter drops a price list that does not
// line up with the outcome labels.
type Market struct {
	Slug         string
	Title        string
	Description  string
	Liquidity    float64
	Volume       float64
	Outcomes     []string  // e.g. ["Yes","No"] or ["Up","Down"]
	Prices       []float64 // index-aligned with Outcomes, each in [0,1]
	EndDate      time.Time
	DurationDays int // rounded whole days from filter time to EndDate
}

// PriceOf returns the price of the outcome at index i when the price list is
// cleanly index-aligned with the outcome list.
func (m Market) PriceOf(i int) (float64, bool) {
	if len(m.Prices) == 0 || len(m.Prices) != len(m.Outcomes) {
		return 0, false
	}
	if i < 0 || i >= len(m.Prices) {
		return 0, false
	}
	return m.Prices[i], true
}

// Candle is one OHLCV sample. Sequences are ordered oldest first.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts the close prices of candles in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
