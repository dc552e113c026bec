package deal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ComputeHash returns the deduplication hash of a deal.
// Two listings with the same title, source and discounted price share a hash.
func ComputeHash(title, source string, discountedPrice float64) string {
	key := title + "_" + source + "_" + formatPrice(discountedPrice)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// formatPrice renders 59.99 as "59.99" and 24 as "24.0".
func formatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
