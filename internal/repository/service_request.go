package repository

import (
	"context"
	"time"

	"bemyrider/internal/domain"
)

// ServiceRequestRepository defines the persistence operations for service requests.
type ServiceRequestRepository interface {
	// Create persists a new service request.
	Create(ctx context.Context, request *domain.ServiceRequest) error

	// GetByID retrieves a service request by ID.
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)

	// Respond moves a pending request addressed to riderID into status in a
	// single guarded statement. Returns ErrNotFound when no request with that
	// ID is addressed to riderID, and ErrConditionFailed when it is no longer pending.
	Respond(ctx context.Context, id, riderID string, status domain.ServiceRequestStatus, response string, at time.Time) (*domain.ServiceRequest, error)

	// ListByMerchant retrieves requests sent by a merchant, newest first.
	ListByMerchant(ctx context.Context, merchantID string) ([]*domain.ServiceRequest, error)

	// ListByRider retrieves requests addressed to a rider, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.ServiceRequest, error)

	// DeleteByParticipant removes every request sent or received by a profile.
	DeleteByParticipant(ctx context.Context, profileID string) error
}
