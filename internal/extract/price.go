package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const currencySymbols = "£€$"

// ParsePrice parses a displayed price such as "£51.77".
// Leading currency symbols and whitespace are ignored; negative values are rejected.
func ParsePrice(raw string) (float64, error) {
	trimmed := strings.TrimLeftFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(currencySymbols, r)
	})
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return 0, fmt.Errorf("empty price %q", raw)
	}
	price, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %q out of range", raw)
	}
	return price, nil
}

// leadingInt returns the integer formed by the leading digits of s, or 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
