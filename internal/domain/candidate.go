package domain

// Candidate is a raw market/event record as delivered by the candidate
// source, before any filtering. Numeric fields that upstream sends as either
// a JSON number or a string are kept as delivered (float64, string, or nil)
// and parsed permissively by the market filter.
type Candidate struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Liquidity   any               `json:"liquidity"`
	Volume      any               `json:"volume"`
	EndDate     string            `json:"endDate"`
	Markets     []CandidateMarket `json:"markets"`
}

// CandidateMarket is one sub-market of a candidate event. Outcomes and
// OutcomePrices are JSON-encoded arrays, e.g. "[\"Yes\",\"No\"]" and
// "[\"0.42\",\"0.58\"]".
type CandidateMarket struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Question      string `json:"question"`
	EndDate       string `json:"endDate"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
}
