package domain

// DecisionKind is the risk scorer's verdict.
type DecisionKind string

const (
	DecisionTrade   DecisionKind = "TRADE"
	DecisionNoTrade DecisionKind = "NO_TRADE"
	DecisionVeto    DecisionKind = "VETO"
)

// SizeCategory is the position-size tier of an approved trade.
type SizeCategory string

const (
	SizeNone       SizeCategory = "NONE"
	SizeMinimum    SizeCategory = "MINIMUM"
	SizeStandard   SizeCategory = "STANDARD"
	SizeConviction SizeCategory = "CONVICTION"
)

// BankrollPercent is the share of bankroll each tier stands for.
func (s SizeCategory) BankrollPercent() float64 {
	switch s {
	case SizeMinimum:
		return 1
	case SizeStandard:
		return 2
	case SizeConviction:
		return 5
	default:
		return 0
	}
}

// Decision is computed once per candidate from a ScoreVector.
type Decision struct {
	WeightedScore float64      `json:"weighted_score"` // 0-100, two decimals
	Decision      DecisionKind `json:"decision"`
	SizeCategory  SizeCategory `json:"size_category"`
	Vetoed        bool         `json:"vetoed"`
	VetoReason    string       `json:"veto_reason,omitempty"`
}
