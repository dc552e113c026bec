package deal

import (
	"regexp"
	"strconv"
)

var nonPriceChars = regexp.MustCompile(`[^\d.]`)

// ParsePrice extracts a numeric price from free text such as "$1,234.56".
// Every character except digits and '.' is dropped before parsing.
// It reports false when nothing parseable remains.
func ParsePrice(text string) (float64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// CalculateDiscount returns the discount percentage of discounted relative to original.
// The result is truncated toward zero, not rounded.
func CalculateDiscount(original, discounted float64) int {
	if original <= 0 || discounted <= 0 {
		return 0
	}
	return int((original - discounted) / original * 100)
}
