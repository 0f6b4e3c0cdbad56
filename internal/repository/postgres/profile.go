package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// ProfileRepository is a PostgreSQL implementation of repository.ProfileRepository.
type ProfileRepository struct {
	q Querier
}

// NewProfileRepository creates a profile repository over a pool or a transaction.
func NewProfileRepository(q Querier) *ProfileRepository {
	return &ProfileRepository{q: q}
}

// Create persists a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		profile.ID,
		nullString(profile.FullName),
		profile.Role,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT id, full_name, role, created_at, updated_at FROM profiles WHERE id = $1`

	var profile domain.Profile
	var fullName sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&fullName,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	profile.FullName = fullName.String
	return &profile, nil
}

// Delete removes a profile.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
