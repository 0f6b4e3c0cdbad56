package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// ServiceRequestRepository is a PostgreSQL implementation of repository.ServiceRequestRepository.
type ServiceRequestRepository struct {
	q Querier
}

// NewServiceRequestRepository creates a service request repository over a pool or a transaction.
func NewServiceRequestRepository(q Querier) *ServiceRequestRepository {
	return &ServiceRequestRepository{q: q}
}

const serviceRequestColumns = `
	id, merchant_id, rider_id, requested_date, to_char(start_time, 'HH24:MI'), duration_hours,
	description, merchant_address, status, rider_response, created_at, updated_at
`

func scanServiceRequest(row rowScanner) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	var description, riderResponse sql.NullString

	if err := row.Scan(
		&req.ID,
		&req.MerchantID,
		&req.RiderID,
		&req.RequestedDate,
		&req.StartTime,
		&req.DurationHours,
		&description,
		&req.MerchantAddress,
		&req.Status,
		&riderResponse,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}

	req.Description = description.String
	req.RiderResponse = riderResponse.String
	return &req, nil
}

// Create persists a new service request.
func (r *ServiceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (id, merchant_id, rider_id, requested_date, start_time, duration_hours, description, merchant_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.MerchantID,
		req.RiderID,
		req.RequestedDate,
		req.StartTime,
		req.DurationHours,
		nullString(req.Description),
		req.MerchantAddress,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	return err
}

// GetByID retrieves a service request by ID.
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE id = $1`

	req, err := scanServiceRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Respond moves a pending request into a terminal status in one guarded statement.
func (r *ServiceRequestRepository) Respond(ctx context.Context, id, riderID string, status domain.ServiceRequestStatus, response string, at time.Time) (*domain.ServiceRequest, error) {
	query := `
		UPDATE service_requests
		SET status = $1, rider_response = $2, updated_at = $3
		WHERE id = $4 AND rider_id = $5 AND status = 'pending'
		RETURNING ` + serviceRequestColumns

	req, err := scanServiceRequest(r.q.QueryRowContext(ctx, query, status, nullString(response), at, id, riderID))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing updated: tell apart "not addressed to this rider" from "already answered".
	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1 AND rider_id = $2)`
	if err := r.q.QueryRowContext(ctx, existsQuery, id, riderID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrConditionFailed
	}
	return nil, repository.ErrNotFound
}

// ListByMerchant retrieves requests sent by a merchant, newest first.
func (r *ServiceRequestRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE merchant_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, merchantID)
}

// ListByRider retrieves requests addressed to a rider, newest first.
func (r *ServiceRequestRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE rider_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, riderID)
}

func (r *ServiceRequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ServiceRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.ServiceRequest
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// DeleteByParticipant removes every request sent or received by a profile.
func (r *ServiceRequestRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM service_requests WHERE merchant_id = $1 OR rider_id = $1`, profileID)
	return err
}

var _ repository.ServiceRequestRepository = (*ServiceRequestRepository)(nil)
