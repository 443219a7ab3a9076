package billing

import "math"

// MinimumChargeMinor is the smallest amount the provider will charge, in
// currency minor units (0.50 in two-decimal currencies).
const MinimumChargeMinor int64 = 50

var supportedCurrencies = map[string]bool{
	"usd": true,
	"eur": true,
	"gbp": true,
}

func SupportedCurrency(currency string) bool {
	return supportedCurrencies[currency]
}

// ToMinor converts a major-unit decimal amount (5.00) to minor units (500).
// Rounding guards against float representation drift in JSON payloads.
func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ToMajor converts minor units back to the decimal amount used on the wire.
func ToMajor(minor int64) float64 {
	return float64(minor) / 100
}
