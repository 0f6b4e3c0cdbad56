package repository

import (
	"context"

	"bemyrider/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// CreateSettlement persists a booking tied to a payment intent. A second
	// insert for the same payment intent is a no-op that returns the stored booking.
	CreateSettlement(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByParticipant retrieves bookings where the profile is merchant or rider.
	ListByParticipant(ctx context.Context, profileID string) ([]*domain.Booking, error)

	// UpdateStatus moves a booking from one status to another.
	// Returns ErrConditionFailed if the booking is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error

	// UpdatePaymentStatusByIntent moves the payment status of the booking tied
	// to a payment intent, only when it is currently one of from.
	// Returns the number of bookings changed.
	UpdatePaymentStatusByIntent(ctx context.Context, paymentIntentID string, from []domain.PaymentStatus, to domain.PaymentStatus) (int64, error)

	// DeleteByParticipant removes every booking where the profile is merchant or rider.
	DeleteByParticipant(ctx context.Context, profileID string) error
}
