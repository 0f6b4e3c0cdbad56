package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "in_attesa"
	BookingConfirmed  BookingStatus = "confermata"
	BookingInProgress BookingStatus = "in_corso"
	BookingCompleted  BookingStatus = "completata"
	BookingCancelled  BookingStatus = "annullata"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case BookingConfirmed:
		return s == BookingPending
	case BookingInProgress:
		return s == BookingConfirmed
	case BookingCompleted:
		return s == BookingInProgress
	case BookingCancelled:
		return true
	}
	return false
}

// PaymentStatus represents the settlement state of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "in_attesa"
	PaymentPaid     PaymentStatus = "pagato"
	PaymentRefunded PaymentStatus = "rimborsato"
)

// Booking (prenotazione) is a payable engagement between a merchant and a rider.
type Booking struct {
	ID                    string
	MerchantID            string
	RiderID               string
	StartTime             time.Time
	EndTime               time.Time
	ServiceDurationHours  decimal.Decimal
	GrossAmount           decimal.Decimal
	TaxWithholdingAmount  decimal.NullDecimal // not computed yet
	NetAmount             decimal.Decimal
	Status                BookingStatus
	PaymentStatus         PaymentStatus
	StripePaymentIntentID string
	CreatedAt             time.Time
}

// IsParty reports whether profileID is the merchant or the rider of the booking.
func (b *Booking) IsParty(profileID string) bool {
	return profileID != "" && (b.MerchantID == profileID || b.RiderID == profileID)
}

// HoursToDuration converts a decimal number of hours into a time.Duration.
func HoursToDuration(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(decimal.NewFromInt(int64(time.Hour))).IntPart())
}
