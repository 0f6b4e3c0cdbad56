package repository

import (
	"context"

	"bemyrider/internal/domain"
)

// ProfileRepository defines the persistence operations for profiles.
type ProfileRepository interface {
	// Create persists a new profile.
	Create(ctx context.Context, profile *domain.Profile) error

	// GetByID retrieves a profile by ID.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)

	// Delete removes a profile.
	Delete(ctx context.Context, id string) error
}
