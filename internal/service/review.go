package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

const maxReviewCommentLength = 1000

// ReviewService lets merchants rate completed bookings.
type ReviewService struct {
	repos  repository.Repositories
	uow    repository.UnitOfWork
	cache  redis.RiderCacheInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repos repository.Repositories, uow repository.UnitOfWork, cache redis.RiderCacheInterface, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repos: repos, uow: uow, cache: cache, logger: logger, now: time.Now}
}

// Create stores the merchant's single review of a completed booking and refreshes the rider's rating.
func (s *ReviewService) Create(ctx context.Context, p *Principal, bookingID string, rating int, comment string) (*domain.Review, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}
	if rating < domain.MinReviewRating || rating > domain.MaxReviewRating {
		return nil, invalid("rating", fmt.Sprintf("must be between %d and %d", domain.MinReviewRating, domain.MaxReviewRating))
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > maxReviewCommentLength {
		return nil, invalid("comment", fmt.Sprintf("must be at most %d characters", maxReviewCommentLength))
	}
	if !validID(bookingID) {
		return nil, ErrNotFoundOrForbidden
	}

	var review *domain.Review
	err := s.uow.WithinTx(ctx, func(tx repository.Repositories) error {
		booking, err := tx.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return hideNotFound(err)
		}
		if booking.MerchantID != p.ID {
			return ErrNotFoundOrForbidden
		}
		if booking.Status != domain.BookingCompleted {
			return fmt.Errorf("only completed bookings can be reviewed: %w", ErrInvalidState)
		}

		r := &domain.Review{
			ID:         uuid.New().String(),
			BookingID:  booking.ID,
			MerchantID: booking.MerchantID,
			RiderID:    booking.RiderID,
			Rating:     rating,
			Comment:    comment,
			CreatedAt:  s.now().UTC(),
		}
		if err := tx.Reviews.Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateReview
			}
			return err
		}
		if err := tx.Riders.RefreshRating(ctx, booking.RiderID); err != nil {
			return err
		}
		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRider(ctx, review.RiderID); err != nil {
			s.logger.Warn("rider cache invalidation failed", zap.String("rider_id", review.RiderID), zap.Error(err))
		}
	}
	return review, nil
}

// ListByRider returns a rider's reviews, newest first.
func (s *ReviewService) ListByRider(ctx context.Context, riderID string) ([]*domain.Review, error) {
	if !validID(riderID) {
		return nil, fmt.Errorf("rider %q: %w", riderID, ErrNotFound)
	}
	return s.repos.Reviews.ListByRider(ctx, riderID)
}
