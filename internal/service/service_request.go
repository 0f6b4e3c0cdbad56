package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/observability"
	"bemyrider/internal/repository"
)

const minDescriptionLength = 2

// ServiceRequestService drives the merchant-to-rider request state machine.
type ServiceRequestService struct {
	repos         repository.Repositories
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewServiceRequestService creates a new ServiceRequestService.
func NewServiceRequestService(repos repository.Repositories, notifications *NotificationService, logger *zap.Logger) *ServiceRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceRequestService{
		repos:         repos,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateServiceRequestParams contains the parameters for creating a service request.
type CreateServiceRequestParams struct {
	RiderID         string
	StartDate       string // YYYY-MM-DD
	StartTime       string // HH:MM
	DurationHours   decimal.Decimal
	Description     string
	MerchantAddress string
	UserID          string // client hint, cross-checked against the principal
}

// Create persists a pending request from the calling merchant to a rider.
func (s *ServiceRequestService) Create(ctx context.Context, p *Principal, params CreateServiceRequestParams) (*domain.ServiceRequest, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}
	if err := p.CheckHint(params.UserID); err != nil {
		return nil, err
	}

	var absent []string
	if params.RiderID == "" {
		absent = append(absent, "riderId")
	}
	if params.StartDate == "" {
		absent = append(absent, "startDate")
	}
	if params.StartTime == "" {
		absent = append(absent, "startTime")
	}
	if params.DurationHours.IsZero() {
		absent = append(absent, "duration")
	}
	if strings.TrimSpace(params.MerchantAddress) == "" {
		absent = append(absent, "merchantAddress")
	}
	if strings.TrimSpace(params.Description) == "" {
		absent = append(absent, "description")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}

	description := strings.TrimSpace(params.Description)
	if len([]rune(description)) < minDescriptionLength {
		return nil, invalid("description", fmt.Sprintf("must be at least %d characters", minDescriptionLength))
	}
	if err := validateBookingHours("duration", params.DurationHours); err != nil {
		return nil, err
	}

	day, _, err := parseSchedule(params.StartDate, params.StartTime)
	if err != nil {
		return nil, err
	}

	if _, _, err := lookupRider(ctx, s.repos, params.RiderID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &domain.ServiceRequest{
		ID:              uuid.New().String(),
		MerchantID:      p.ID,
		RiderID:         params.RiderID,
		RequestedDate:   day,
		StartTime:       params.StartTime,
		DurationHours:   params.DurationHours,
		Description:     description,
		MerchantAddress: strings.TrimSpace(params.MerchantAddress),
		Status:          domain.ServiceRequestPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repos.ServiceRequests.Create(ctx, req); err != nil {
		return nil, err
	}

	observability.ServiceRequestsCreated.Inc()
	s.notifications.NotifyServiceRequestCreated(ctx, req)
	return req, nil
}

// RespondRequest contains the parameters for a rider's answer.
type RespondRequest struct {
	RequestID     string
	Status        domain.ServiceRequestStatus
	RiderResponse string
	UserID        string // client hint, cross-checked against the principal
}

// Respond records the addressed rider's answer exactly once.
// A request addressed to someone else is indistinguishable from a missing one.
func (s *ServiceRequestService) Respond(ctx context.Context, p *Principal, req RespondRequest) (*domain.ServiceRequest, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	if err := p.CheckHint(req.UserID); err != nil {
		return nil, err
	}
	if !req.Status.IsResponse() {
		return nil, invalid("status", `must be either "accepted" or "rejected"`)
	}
	if !validID(req.RequestID) {
		return nil, ErrNotFoundOrForbidden
	}

	updated, err := s.repos.ServiceRequests.Respond(ctx, req.RequestID, p.ID, req.Status, strings.TrimSpace(req.RiderResponse), s.now().UTC())
	switch {
	case errors.Is(err, repository.ErrConditionFailed):
		observability.ServiceRequestResponses.WithLabelValues("invalid_state").Inc()
		return nil, fmt.Errorf("service request has already been responded to: %w", ErrInvalidState)
	case errors.Is(err, repository.ErrNotFound):
		observability.ServiceRequestResponses.WithLabelValues("not_found").Inc()
		return nil, ErrNotFoundOrForbidden
	case err != nil:
		s.logger.Error("respond to service request failed",
			zap.String("operation", "respond_service_request"),
			zap.String("request_id", req.RequestID),
			zap.String("rider_id", p.ID),
			zap.Error(err),
		)
		return nil, err
	}

	observability.ServiceRequestResponses.WithLabelValues(string(updated.Status)).Inc()
	s.notifications.NotifyServiceRequestResponded(ctx, updated)
	return updated, nil
}

// List returns the caller's sent (merchant) or received (rider) requests, newest first.
func (s *ServiceRequestService) List(ctx context.Context, p *Principal, listType string) ([]*domain.ServiceRequest, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}

	switch domain.Role(listType) {
	case domain.RoleMerchant:
		if p.Role != domain.RoleMerchant {
			return nil, ErrForbidden
		}
		return s.repos.ServiceRequests.ListByMerchant(ctx, p.ID)
	case domain.RoleRider:
		if p.Role != domain.RoleRider {
			return nil, ErrForbidden
		}
		return s.repos.ServiceRequests.ListByRider(ctx, p.ID)
	default:
		return nil, invalid("type", "must be merchant or rider")
	}
}

// Get returns a request the caller is party to.
func (s *ServiceRequestService) Get(ctx context.Context, p *Principal, id string) (*domain.ServiceRequest, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFoundOrForbidden
	}

	req, err := s.repos.ServiceRequests.GetByID(ctx, id)
	if err != nil {
		return nil, hideNotFound(err)
	}
	if req.MerchantID != p.ID && req.RiderID != p.ID {
		return nil, ErrNotFoundOrForbidden
	}
	return req, nil
}
