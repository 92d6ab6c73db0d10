package royalty

import "github.com/shopspring/decimal"

// MinorUnitExponent is the number of decimal places between major and minor units.
const MinorUnitExponent = 2

// MinorToMajor converts minor units (cents) to a major-unit decimal, e.g. 3750 -> 37.5.
func MinorToMajor(amount int64) decimal.Decimal {
	return decimal.New(amount, -MinorUnitExponent)
}

// MajorToMinor converts a major-unit amount to minor units, rounding half-up.
func MajorToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(MinorUnitExponent).Round(0).IntPart()
}

// FormatMinor renders minor units as a plain major-unit number without trailing zeros.
func FormatMinor(amount int64) string {
	return MinorToMajor(amount).String()
}
