package repository

import (
	"context"
	"time"

	"bemyrider/internal/domain"
)

// ReviewRepository defines the persistence operations for reviews.
type ReviewRepository interface {
	// Create persists a review. Returns ErrDuplicate if the booking already has one.
	Create(ctx context.Context, review *domain.Review) error

	// ListByRider retrieves the reviews received by a rider, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Review, error)

	// DeleteByParticipant removes reviews written by or about a profile.
	DeleteByParticipant(ctx context.Context, profileID string) error
}

// ReceiptRepository defines the persistence operations for performance receipts.
type ReceiptRepository interface {
	// Create issues the next receipt number for a booking.
	Create(ctx context.Context, id, bookingID string, date time.Time) (*domain.Receipt, error)

	GetByBooking(ctx context.Context, bookingID string) (*domain.Receipt, error)
}

// FavoriteRepository defines the persistence operations for merchant favorites.
type FavoriteRepository interface {
	// Add marks a rider as favorite. Adding twice is a no-op.
	Add(ctx context.Context, merchantID, riderID string) error

	// Remove unmarks a rider.
	Remove(ctx context.Context, merchantID, riderID string) error

	// ListByMerchant retrieves the favorite riders of a merchant.
	ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Favorite, error)

	// DeleteByParticipant removes favorites owned by or pointing to a profile.
	DeleteByParticipant(ctx context.Context, profileID string) error
}
