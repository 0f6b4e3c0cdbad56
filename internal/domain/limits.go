package domain

import "github.com/shopspring/decimal"

// Marketplace bounds. Both ends are inclusive.
var (
	MinRiderHourlyRate = decimal.RequireFromString("5.00")
	MaxRiderHourlyRate = decimal.RequireFromString("12.50")

	MinBookingHours = decimal.NewFromInt(1)
	MaxBookingHours = decimal.NewFromInt(2)
)

// ValidRiderHourlyRate reports whether rate is inside the allowed rider rate range.
func ValidRiderHourlyRate(rate decimal.Decimal) bool {
	return rate.GreaterThanOrEqual(MinRiderHourlyRate) && rate.LessThanOrEqual(MaxRiderHourlyRate)
}

// ValidBookingHours reports whether hours is inside the allowed booking duration range.
func ValidBookingHours(hours decimal.Decimal) bool {
	return hours.GreaterThanOrEqual(MinBookingHours) && hours.LessThanOrEqual(MaxBookingHours)
}

// HasCentPrecision reports whether d has at most two decimal places, as stored in NUMERIC(_,2) columns.
// Trailing zeros do not count, so 1.500 is accepted.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
