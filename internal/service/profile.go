package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

const maxActiveLocationLength = 100

// ProfileService manages the caller's own profile and account.
type ProfileService struct {
	repos  repository.Repositories
	uow    repository.UnitOfWork
	cache  redis.RiderCacheInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repos repository.Repositories, uow repository.UnitOfWork, cache redis.RiderCacheInterface, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repos: repos, uow: uow, cache: cache, logger: logger, now: time.Now}
}

// RegisterRequest contains the parameters for creating the caller's profile.
type RegisterRequest struct {
	FullName       string
	Role           domain.Role
	HourlyRate     decimal.Decimal
	VehicleType    domain.VehicleType
	ActiveLocation string
}

// ProfileView is a profile together with its rider details, when the profile is a rider.
type ProfileView struct {
	Profile *domain.Profile
	Rider   *domain.RiderDetails
}

// Register creates the profile for an authenticated identity. A rider profile also gets rider details.
func (s *ProfileService) Register(ctx context.Context, p *Principal, req RegisterRequest) (*ProfileView, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}
	if p.Role != "" {
		return nil, repository.ErrDuplicate
	}
	if !req.Role.Valid() {
		return nil, invalid("role", "must be rider or merchant")
	}

	now := s.now().UTC()
	view := &ProfileView{Profile: &domain.Profile{
		ID:        p.ID,
		FullName:  strings.TrimSpace(req.FullName),
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	if req.Role == domain.RoleRider {
		if err := validateHourlyRate(req.HourlyRate); err != nil {
			return nil, err
		}
		if req.VehicleType != "" && !req.VehicleType.Valid() {
			return nil, invalid("vehicleType", "must be one of bici, e_bike, scooter, auto")
		}
		location := strings.TrimSpace(req.ActiveLocation)
		if len([]rune(location)) > maxActiveLocationLength {
			return nil, invalid("activeLocation", "must be at most 100 characters")
		}
		if location == "" {
			location = domain.DefaultActiveLocation
		}
		view.Rider = &domain.RiderDetails{
			ProfileID:      p.ID,
			HourlyRate:     req.HourlyRate.Round(2),
			VehicleType:    req.VehicleType,
			ActiveLocation: location,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	err := s.uow.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Profiles.Create(ctx, view.Profile); err != nil {
			return err
		}
		if view.Rider != nil {
			return tx.Riders.Create(ctx, view.Rider)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, p *Principal) (*ProfileView, error) {
	if err := p.Authenticated(); err != nil {
		return nil, err
	}

	profile, err := s.repos.Profiles.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Profile: profile}
	if profile.Role == domain.RoleRider {
		rider, err := s.repos.Riders.GetByProfileID(ctx, p.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		view.Rider = rider
	}
	return view, nil
}

// DeleteAccount removes everything the caller takes part in, then the profile, in one transaction.
// Receipts go with their bookings.
func (s *ProfileService) DeleteAccount(ctx context.Context, p *Principal) error {
	if err := p.Authenticated(); err != nil {
		return err
	}

	err := s.uow.WithinTx(ctx, func(tx repository.Repositories) error {
		steps := []func(context.Context, string) error{
			tx.Reviews.DeleteByParticipant,
			tx.Bookings.DeleteByParticipant,
			tx.ServiceRequests.DeleteByParticipant,
			tx.Favorites.DeleteByParticipant,
			tx.Riders.Delete,
			tx.Profiles.Delete,
		}
		for _, step := range steps {
			if err := step(ctx, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("account deletion failed",
			zap.String("operation", "delete_account"),
			zap.String("profile_id", p.ID),
			zap.Error(err),
		)
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRider(ctx, p.ID); err != nil {
			s.logger.Warn("rider cache invalidation failed", zap.String("rider_id", p.ID), zap.Error(err))
		}
	}
	s.logger.Info("account deleted", zap.String("profile_id", p.ID))
	return nil
}
