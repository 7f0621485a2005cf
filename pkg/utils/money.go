package utils

import (
	"fmt"
	"math"
)

// MaxAmount is the largest value a numeric(14, 2) ledger column holds.
const MaxAmount = 999999999999.99

// ToCents converts a base-unit amount to integer cents, rounding half away
// from zero. Values outside the int64 range saturate.
func ToCents(amount float64) int64 {
	cents := math.Round(amount * 100)
	switch {
	case cents >= math.MaxInt64:
		return math.MaxInt64
	case cents <= math.MinInt64:
		return math.MinInt64
	}
	return int64(cents)
}

// FromCents converts integer cents back to the base unit.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// RoundAmount rounds to two decimals.
func RoundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatAmount renders an amount with two decimals and an optional currency code.
func FormatAmount(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", RoundAmount(amount))
	}
	return fmt.Sprintf("%.2f %s", RoundAmount(amount), currency)
}
