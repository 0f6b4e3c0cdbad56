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
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

// BookingService handles direct bookings and the booking lifecycle.
type BookingService struct {
	repos         repository.Repositories
	uow           repository.UnitOfWork
	receipts      *ReceiptService
	cache         redis.RiderCacheInterface
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repos repository.Repositories,
	uow repository.UnitOfWork,
	receipts *ReceiptService,
	cache redis.RiderCacheInterface,
	notifications *NotificationService,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repos:         repos,
		uow:           uow,
		receipts:      receipts,
		cache:         cache,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateBookingRequest contains the parameters for a direct booking.
type CreateBookingRequest struct {
	RiderID       string
	StartDate     string // YYYY-MM-DD
	StartTime     string // HH:MM
	DurationHours decimal.Decimal
}

// Create books a rider at the rider's current hourly rate. The rate is copied into the booking.
func (s *BookingService) Create(ctx context.Context, p *Principal, req CreateBookingRequest) (*domain.Booking, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}

	var absent []string
	if req.RiderID == "" {
		absent = append(absent, "riderId")
	}
	if strings.TrimSpace(req.StartDate) == "" {
		absent = append(absent, "startDate")
	}
	if strings.TrimSpace(req.StartTime) == "" {
		absent = append(absent, "startTime")
	}
	if req.DurationHours.IsZero() {
		absent = append(absent, "duration")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}

	if err := validateBookingHours("duration", req.DurationHours); err != nil {
		return nil, err
	}
	_, start, err := parseSchedule(req.StartDate, req.StartTime)
	if err != nil {
		return nil, err
	}

	_, rider, err := lookupRider(ctx, s.repos, req.RiderID)
	if err != nil {
		return nil, err
	}

	gross := domain.GrossAmount(req.DurationHours, rider.HourlyRate)
	booking := &domain.Booking{
		ID:                   uuid.New().String(),
		MerchantID:           p.ID,
		RiderID:              rider.ProfileID,
		StartTime:            start,
		EndTime:              start.Add(domain.HoursToDuration(req.DurationHours)),
		ServiceDurationHours: req.DurationHours,
		GrossAmount:          gross,
		NetAmount:            gross,
		Status:               domain.BookingPending,
		PaymentStatus:        domain.PaymentPending,
		CreatedAt:            s.now().UTC(),
	}

	if err := s.repos.Bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.notifications.NotifyBookingCreated(ctx, booking)
	return booking, nil
}

// Transition moves a booking along its lifecycle.
// Confirm, start and complete belong to the rider; either party may cancel.
// Completing a booking issues its receipt and counts the job in the same transaction.
func (s *BookingService) Transition(ctx context.Context, p *Principal, bookingID string, to domain.BookingStatus) (*domain.Booking, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	if !validID(bookingID) {
		return nil, ErrNotFoundOrForbidden
	}

	var booking *domain.Booking
	var from domain.BookingStatus
	err := s.uow.WithinTx(ctx, func(tx repository.Repositories) error {
		b, err := tx.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return hideNotFound(err)
		}
		if !b.IsParty(p.ID) {
			return ErrNotFoundOrForbidden
		}
		if to != domain.BookingCancelled && b.RiderID != p.ID {
			return ErrForbidden
		}
		if !b.Status.CanTransitionTo(to) {
			return fmt.Errorf("booking is %s, cannot move to %s: %w", b.Status, to, ErrInvalidState)
		}

		if err := tx.Bookings.UpdateStatus(ctx, b.ID, b.Status, to); err != nil {
			if errors.Is(err, repository.ErrConditionFailed) {
				return fmt.Errorf("booking changed concurrently: %w", ErrInvalidState)
			}
			return err
		}
		from = b.Status
		b.Status = to

		if to == domain.BookingCompleted {
			if err := tx.Riders.IncrementCompletedJobs(ctx, b.RiderID); err != nil {
				return err
			}
			if _, err := s.receipts.IssueReceipt(ctx, tx, b); err != nil {
				return err
			}
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(string(to)).Inc()
	if to == domain.BookingCompleted && s.cache != nil {
		if err := s.cache.InvalidateRider(ctx, booking.RiderID); err != nil {
			s.logger.Warn("failed to invalidate rider cache", zap.String("rider_id", booking.RiderID), zap.Error(err))
		}
	}
	s.notifications.NotifyBookingStatusChanged(ctx, booking, from)
	return booking, nil
}

// List returns the bookings the caller takes part in.
func (s *BookingService) List(ctx context.Context, p *Principal) ([]*domain.Booking, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	return s.repos.Bookings.ListByParticipant(ctx, p.ID)
}

// Get returns one booking the caller takes part in.
func (s *BookingService) Get(ctx context.Context, p *Principal, bookingID string) (*domain.Booking, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	if !validID(bookingID) {
		return nil, ErrNotFoundOrForbidden
	}

	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, hideNotFound(err)
	}
	if !booking.IsParty(p.ID) {
		return nil, ErrNotFoundOrForbidden
	}
	return booking, nil
}
