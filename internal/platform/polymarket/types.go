package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexString unmarshals a JSON string, number, or null into its textual form.
// Gamma sends some identifiers and amounts either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APITag is a category label attached to an event.
type APITag struct {
	ID    flexString `json:"id"`
	Label string     `json:"label"`
	Slug  string     `json:"slug"`
}

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID          flexString  `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Active      flexBool    `json:"active"`
	Closed      flexBool    `json:"closed"`
	Liquidity   any         `json:"liquidity"` // number or numeric string
	Volume      any         `json:"volume"`
	EndDate     string      `json:"endDate"`
	Tags        []APITag    `json:"tags"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket represents a sub-market nested in a Gamma event.
type APIMarket struct {
	ID            flexString `json:"id"`
	Question      string     `json:"question"`
	ConditionID   string     `json:"conditionId"`
	Slug          string     `json:"slug"`
	Active        flexBool   `json:"active"`
	Closed        flexBool   `json:"closed"`
	EndDate       string     `json:"endDate"`
	EndDateISO    string     `json:"endDateIso"`
	Outcomes      string     `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string     `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Liquidity     any        `json:"liquidity"`
	Volume        any        `json:"volume"`
}

// ToCandidate converts an APIEvent into a raw candidate, keeping amounts and
// dates as delivered so the market filter can parse them permissively.
func (e *APIEvent) ToCandidate() domain.Candidate {
	c := domain.Candidate{
		ID:          string(e.ID),
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Liquidity:   e.Liquidity,
		Volume:      e.Volume,
		EndDate:     e.EndDate,
	}
	for _, t := range e.Tags {
		if t.Label != "" {
			c.Tags = append(c.Tags, t.Label)
		}
	}
	for i := range e.Markets {
		c.Markets = append(c.Markets, e.Markets[i].toCandidateMarket())
	}
	return c
}

func (m *APIMarket) toCandidateMarket() domain.CandidateMarket {
	end := m.EndDate
	if end == "" {
		end = m.EndDateISO
	}
	return domain.CandidateMarket{
		ID:            string(m.ID),
		Slug:          m.Slug,
		Question:      m.Question,
		EndDate:       end,
		Outcomes:      m.Outcomes,
		OutcomePrices: m.OutcomePrices,
	}
}
