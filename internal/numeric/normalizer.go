// Package numeric quantizes physical measurements into exact fixed-point
// decimals that are safe to serialize into carrier payloads.
//
// Carriers reject values like "4.40899999999999980815" that fall out of
// binary floating point, so every weight, dimension and monetary value
// goes through Normalize before it reaches a wire payload. Serialization
// happens from the decimal representation (Text), never through float64.
package numeric

import "github.com/shopspring/decimal"

// Places is the fixed precision used across all carriers. It is a
// configuration constant of the pipeline, not a per-carrier setting.
const Places int32 = 3

var (
	half = decimal.New(5, -1) // 0.5

	// 1 kg = 2.2046226218 lb, 1 in = 2.54 cm. Kept as exact decimals so
	// conversion itself introduces no binary artifacts.
	lbPerKg = decimal.RequireFromString("2.2046226218")
	cmPerIn = decimal.RequireFromString("2.54")
)

// Normalize scales v by 10^places, rounds half-up to the nearest
// integer, and re-expresses the result as a fixed-point decimal.
//
// It is idempotent: Normalize(Normalize(v)) == Normalize(v). It never
// fails; unit conversion is the caller's job and happens before this.
func Normalize(v decimal.Decimal, places int32) decimal.Decimal {
	scaled := v.Shift(places)
	// Add(0.5).Floor() is round-half-up, also for negative inputs,
	// unlike decimal's Round which is half-away-from-zero.
	rounded := scaled.Add(half).Floor()
	return rounded.Shift(-places)
}

// NormalizeFloat normalizes a binary float measurement.
func NormalizeFloat(f float64, places int32) decimal.Decimal {
	return Normalize(decimal.NewFromFloat(f), places)
}

// Text serializes a normalized value with exactly places fractional
// digits, straight from the decimal representation.
func Text(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// KgToLb converts a kilogram measurement to pounds. The result still
// needs Normalize before serialization.
func KgToLb(kg float64) decimal.Decimal {
	return decimal.NewFromFloat(kg).Mul(lbPerKg)
}

// CmToIn converts a centimeter measurement to inches.
func CmToIn(cm float64) decimal.Decimal {
	return decimal.NewFromFloat(cm).Div(cmPerIn)
}
