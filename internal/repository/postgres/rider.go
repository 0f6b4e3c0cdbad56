package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// RiderRepository is a PostgreSQL implementation of repository.RiderRepository.
type RiderRepository struct {
	q Querier
}

// NewRiderRepository creates a rider repository over a pool or a transaction.
func NewRiderRepository(q Querier) *RiderRepository {
	return &RiderRepository{q: q}
}

const riderColumns = `
	profile_id, hourly_rate, vehicle_type, active_location, stripe_account_id,
	stripe_onboarding_complete, rating, completed_jobs, is_verified, is_premium,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRider(row rowScanner) (*domain.RiderDetails, error) {
	var rider domain.RiderDetails
	var vehicleType, stripeAccountID sql.NullString

	if err := row.Scan(
		&rider.ProfileID,
		&rider.HourlyRate,
		&vehicleType,
		&rider.ActiveLocation,
		&stripeAccountID,
		&rider.StripeOnboardingComplete,
		&rider.Rating,
		&rider.CompletedJobs,
		&rider.IsVerified,
		&rider.IsPremium,
		&rider.CreatedAt,
		&rider.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rider.VehicleType = domain.VehicleType(vehicleType.String)
	rider.StripeAccountID = stripeAccountID.String
	return &rider, nil
}

// Create persists rider details for an existing rider profile.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.RiderDetails) error {
	query := `
		INSERT INTO riders_details (profile_id, hourly_rate, vehicle_type, active_location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	activeLocation := rider.ActiveLocation
	if activeLocation == "" {
		activeLocation = domain.DefaultActiveLocation
	}

	_, err := r.q.ExecContext(ctx, query,
		rider.ProfileID,
		rider.HourlyRate,
		nullString(string(rider.VehicleType)),
		activeLocation,
		rider.CreatedAt,
		rider.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByProfileID retrieves the rider details of a profile.
func (r *RiderRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.RiderDetails, error) {
	query := `SELECT ` + riderColumns + ` FROM riders_details WHERE profile_id = $1`

	rider, err := scanRider(r.q.QueryRowContext(ctx, query, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rider, nil
}

// List retrieves riders ordered by rating, at most limit rows.
func (r *RiderRepository) List(ctx context.Context, limit int) ([]*domain.RiderDetails, error) {
	query := `
		SELECT ` + riderColumns + `
		FROM riders_details
		ORDER BY rating DESC NULLS LAST, completed_jobs DESC
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*domain.RiderDetails
	for rows.Next() {
		rider, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, rider)
	}
	return riders, rows.Err()
}

// UpdateHourlyRate sets the rider's hourly rate.
func (r *RiderRepository) UpdateHourlyRate(ctx context.Context, profileID string, rate decimal.Decimal) error {
	query := `UPDATE riders_details SET hourly_rate = $1, updated_at = NOW() WHERE profile_id = $2`

	result, err := r.q.ExecContext(ctx, query, rate, profileID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// SetStripeAccount links a connected account and resets the onboarding flag.
func (r *RiderRepository) SetStripeAccount(ctx context.Context, profileID, accountID string) error {
	query := `
		UPDATE riders_details
		SET stripe_account_id = $1, stripe_onboarding_complete = FALSE, updated_at = NOW()
		WHERE profile_id = $2
	`

	result, err := r.q.ExecContext(ctx, query, accountID, profileID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// MarkOnboardingComplete sets the onboarding flag for the rider owning the connected account.
func (r *RiderRepository) MarkOnboardingComplete(ctx context.Context, stripeAccountID string) ([]string, error) {
	query := `
		UPDATE riders_details
		SET stripe_onboarding_complete = TRUE, updated_at = NOW()
		WHERE stripe_account_id = $1
		RETURNING profile_id
	`

	rows, err := r.q.QueryContext(ctx, query, stripeAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profileIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		profileIDs = append(profileIDs, id)
	}
	return profileIDs, rows.Err()
}

// RefreshRating recomputes the rider's average review rating.
func (r *RiderRepository) RefreshRating(ctx context.Context, profileID string) error {
	query := `
		UPDATE riders_details
		SET rating = (SELECT ROUND(AVG(rating)::numeric, 2) FROM recensioni WHERE rider_id = $1),
		    updated_at = NOW()
		WHERE profile_id = $1
	`

	result, err := r.q.ExecContext(ctx, query, profileID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// IncrementCompletedJobs adds one completed job to the rider.
func (r *RiderRepository) IncrementCompletedJobs(ctx context.Context, profileID string) error {
	query := `UPDATE riders_details SET completed_jobs = completed_jobs + 1, updated_at = NOW() WHERE profile_id = $1`

	result, err := r.q.ExecContext(ctx, query, profileID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes rider details. Deleting a missing row is not an error.
func (r *RiderRepository) Delete(ctx context.Context, profileID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM riders_details WHERE profile_id = $1`, profileID)
	return err
}

var _ repository.RiderRepository = (*RiderRepository)(nil)
