package filter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseAmount reads a non-negative amount delivered as a JSON number or a
// numeric string. Anything absent or unparseable reads as 0.
func ParseAmount(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats seen in Gamma payloads. Layouts
// without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePrices decodes a JSON-encoded price list whose elements may be strings
// or numbers. Malformed input yields an empty list.
func ParsePrices(raw string) []float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		var p float64
		switch x := it.(type) {
		case float64:
			p = x
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil
			}
			p = n
		default:
			return nil
		}
		out = append(out, p)
	}
	return out
}

// ParseOutcomes decodes a JSON-encoded outcome label list. Malformed input
// yields an empty list.
func ParseOutcomes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
