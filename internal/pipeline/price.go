package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

const (
	Crore = 10_000_000
	Lakh  = 100_000
)

var (
	firstNumber = regexp.MustCompile(`(\d+(\.\d+)?)`)
	croreAmount = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cr`)
	lakhAmount  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*l`)
)

// FirstNumber returns the first decimal number in s.
func FirstNumber(s string) (float64, bool) {
	m := firstNumber.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceCeiling reads "<n> cr" or "<n> l" from the query as a rupee amount.
// With neither present the ceiling is +Inf, so every price is under it.
func PriceCeiling(query string) float64 {
	if m := croreAmount.FindStringSubmatch(query); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * Crore
		}
	}
	if m := lakhAmount.FindStringSubmatch(query); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * Lakh
		}
	}
	return math.Inf(1)
}

// CroreString renders a rupee amount in crore with two decimals: 28000000 -> "2.80".
func CroreString(amount int64) string {
	return fmt.Sprintf("%.2f", float64(amount)/Crore)
}

// CroreShort renders a crore amount without trailing zeros: 1 -> "1", 1.5 -> "1.5".
func CroreShort(amount float64) string {
	return strconv.FormatFloat(amount/Crore, 'f', -1, 64)
}

// PriceBounds returns the lowest and highest unit price. ok is false for
// an empty slice.
func PriceBounds(prices []int64) (lo, hi int64, ok bool) {
	if len(prices) == 0 {
		return 0, 0, false
	}
	lo, hi = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi, true
}
