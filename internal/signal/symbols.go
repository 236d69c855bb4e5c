package signal

import (
	"strings"
	"unicode"
)

// SymbolTable maps lower-case asset keywords to exchange trading pairs.
type SymbolTable map[string]string

// DefaultSymbols covers the assets with a liquid USDT pair.
func DefaultSymbols() SymbolTable {
	return SymbolTable{
		"bitcoin":  "BTCUSDT",
		"btc":      "BTCUSDT",
		"ethereum": "ETHUSDT",
		"eth":      "ETHUSDT",
		"solana":   "SOLUSDT",
		"sol":      "SOLUSDT",
	}
}

// Resolve returns the trading pair for the first recognised keyword in slug,
// then title. Keywords match whole words only, so "sol" does not match
// "resolve".
func (t SymbolTable) Resolve(slug, title string) (string, bool) {
	for _, text := range []string{slug, title} {
		for _, tok := range tokenize(text) {
			if pair, ok := t[tok]; ok {
				return pair, true
			}
		}
	}
	return "", false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
