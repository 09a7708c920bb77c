package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// ToCents converts a decimal amount of major units into integer cents,
// rounding half away from zero at two places.
func ToCents(amount decimal.Decimal) int {
	return int(amount.Mul(centsFactor).Round(0).IntPart())
}

// FromCents converts integer cents into a decimal amount of major units.
func FromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(centsFactor)
}

// ParseToCents parses a decimal string such as "19.99" into cents.
func ParseToCents(value string) (int, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	return ToCents(amount), nil
}

// FormatCents renders cents as a fixed two-decimal string for API payloads.
func FormatCents(cents int) string {
	return FromCents(cents).StringFixed(2)
}

// PercentOf applies a percentage to cents and rounds half up to whole cents.
// A 10% discount on 10050 cents yields 1005.
func PercentOf(cents int, percent decimal.Decimal) int {
	amount := decimal.NewFromInt(int64(cents)).Mul(percent).Div(decimal.NewFromInt(100))
	return int(amount.Round(0).IntPart())
}
