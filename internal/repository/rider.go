package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
)

// RiderRepository defines the persistence operations for rider details.
type RiderRepository interface {
	// Create persists rider details for an existing rider profile.
	Create(ctx context.Context, rider *domain.RiderDetails) error

	// GetByProfileID retrieves the rider details of a profile.
	GetByProfileID(ctx context.Context, profileID string) (*domain.RiderDetails, error)

	// List retrieves riders ordered by rating, at most limit rows.
	List(ctx context.Context, limit int) ([]*domain.RiderDetails, error)

	// UpdateHourlyRate sets the rider's hourly rate.
	UpdateHourlyRate(ctx context.Context, profileID string, rate decimal.Decimal) error

	// SetStripeAccount links a connected account and resets the onboarding flag.
	SetStripeAccount(ctx context.Context, profileID, accountID string) error

	// MarkOnboardingComplete sets the onboarding flag for the rider owning the
	// connected account and returns the affected profile IDs. It is idempotent.
	MarkOnboardingComplete(ctx context.Context, stripeAccountID string) ([]string, error)

	// IncrementCompletedJobs adds one completed job to the rider.
	IncrementCompletedJobs(ctx context.Context, profileID string) error

	RefreshRating(ctx context.Context, profileID string) error

	// Delete removes rider details.
	Delete(ctx context.Context, profileID string) error
}
