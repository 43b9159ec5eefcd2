package model

import (
	"math"
	"strconv"
)

// ParseCents converts a backend decimal string ("99.00", "1234.56") into
// cents. The backend quantizes every amount to two decimals, so this is
// the only place wire money becomes arithmetic money. Empty or unparsable
// input is worth zero cents.
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}

// FormatCents renders cents as a two-decimal major-unit string.
// Examples: 9900 → "99.00", 5 → "0.05", -250 → "-2.50"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// PercentOf applies an integer percentage to a cent amount, rounding to the
// nearest cent. Used for coupon discount computation.
func PercentOf(cents int64, percent int) int64 {
	return int64(math.Round(float64(cents) * float64(percent) / 100.0))
}
