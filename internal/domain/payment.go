package domain

import "github.com/shopspring/decimal"

// PlatformFeeRate is the platform's share, charged on top of the rider amount.
var PlatformFeeRate = decimal.RequireFromString("0.15")

var hundred = decimal.NewFromInt(100)

// FeeBreakdown is the split of a single charge.
type FeeBreakdown struct {
	RiderAmount decimal.Decimal
	PlatformFee decimal.Decimal
	TotalAmount decimal.Decimal
}

// ComputeFees derives the platform fee and the total charged for a rider amount.
// The fee is additive: the rider keeps the full rider amount.
func ComputeFees(riderAmount decimal.Decimal) FeeBreakdown {
	fee := riderAmount.Mul(PlatformFeeRate)
	return FeeBreakdown{
		RiderAmount: riderAmount,
		PlatformFee: fee,
		TotalAmount: riderAmount.Add(fee),
	}
}

// TotalMinorUnits is the amount to charge, in cents.
func (f FeeBreakdown) TotalMinorUnits() int64 {
	return ToMinorUnits(f.TotalAmount)
}

// FeeMinorUnits is the application fee, in cents.
func (f FeeBreakdown) FeeMinorUnits() int64 {
	return ToMinorUnits(f.PlatformFee)
}

// ToMinorUnits converts a currency amount to integer cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// GrossAmount is duration times hourly rate, at currency precision.
func GrossAmount(hours, hourlyRate decimal.Decimal) decimal.Decimal {
	return hours.Mul(hourlyRate).Round(2)
}
