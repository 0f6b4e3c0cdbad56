package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

const (
	defaultRiderListLimit = 50
	maxRiderListLimit     = 200
)

// RiderService serves public rider cards and rider-owned settings.
type RiderService struct {
	repos  repository.Repositories
	cache  redis.RiderCacheInterface
	logger *zap.Logger
}

// NewRiderService creates a new RiderService.
func NewRiderService(repos repository.Repositories, cache redis.RiderCacheInterface, logger *zap.Logger) *RiderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiderService{repos: repos, cache: cache, logger: logger}
}

// Get returns a rider card, served from cache when possible.
func (s *RiderService) Get(ctx context.Context, riderID string) (*redis.CachedRider, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRider(ctx, riderID)
		if err != nil {
			s.logger.Warn("rider cache read failed", zap.String("rider_id", riderID), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	profile, details, err := lookupRider(ctx, s.repos, riderID)
	if err != nil {
		return nil, err
	}

	card := riderCard(profile, details)
	s.store(ctx, card)
	return card, nil
}

// List returns rider cards ordered by rating, filling cache misses from the database.
func (s *RiderService) List(ctx context.Context, limit int) ([]*redis.CachedRider, error) {
	if limit <= 0 {
		limit = defaultRiderListLimit
	}
	if limit > maxRiderListLimit {
		limit = maxRiderListLimit
	}

	riders, err := s.repos.Riders.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(riders))
	for i, r := range riders {
		ids[i] = r.ProfileID
	}

	hits := map[string]*redis.CachedRider{}
	if s.cache != nil {
		cached, _, err := s.cache.GetRidersBatch(ctx, ids)
		if err != nil {
			s.logger.Warn("rider cache batch read failed", zap.Error(err))
		} else {
			hits = cached
		}
	}

	cards := make([]*redis.CachedRider, 0, len(riders))
	for _, details := range riders {
		if card, ok := hits[details.ProfileID]; ok {
			cards = append(cards, card)
			continue
		}
		profile, err := s.repos.Profiles.GetByID(ctx, details.ProfileID)
		if err != nil {
			return nil, err
		}
		card := riderCard(profile, details)
		s.store(ctx, card)
		cards = append(cards, card)
	}
	return cards, nil
}

// SetHourlyRate changes the caller's rate. Existing bookings keep the amount they were created with.
func (s *RiderService) SetHourlyRate(ctx context.Context, p *Principal, rate decimal.Decimal) (*domain.RiderDetails, error) {
	if err := p.Require(domain.RoleRider); err != nil {
		return nil, err
	}
	if err := validateHourlyRate(rate); err != nil {
		return nil, err
	}

	if err := s.repos.Riders.UpdateHourlyRate(ctx, p.ID, rate.Round(2)); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)

	return s.repos.Riders.GetByProfileID(ctx, p.ID)
}

func (s *RiderService) store(ctx context.Context, card *redis.CachedRider) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRider(ctx, card); err != nil {
		s.logger.Warn("rider cache write failed", zap.String("rider_id", card.ID), zap.Error(err))
	}
}

func (s *RiderService) invalidate(ctx context.Context, riderIDs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRider(ctx, riderIDs...); err != nil {
		s.logger.Warn("rider cache invalidation failed", zap.Strings("rider_ids", riderIDs), zap.Error(err))
	}
}

func riderCard(profile *domain.Profile, details *domain.RiderDetails) *redis.CachedRider {
	return &redis.CachedRider{
		ID:                 details.ProfileID,
		FullName:           profile.FullName,
		HourlyRate:         details.HourlyRate,
		VehicleType:        string(details.VehicleType),
		ActiveLocation:     details.ActiveLocation,
		Rating:             details.Rating,
		CompletedJobs:      details.CompletedJobs,
		IsVerified:         details.IsVerified,
		IsPremium:          details.IsPremium,
		OnboardingComplete: details.StripeOnboardingComplete,
	}
}
