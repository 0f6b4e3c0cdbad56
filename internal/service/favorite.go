package service

import (
	"context"

	"bemyrider/internal/domain"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

// FavoriteService manages a merchant's preferred riders.
type FavoriteService struct {
	repos  repository.Repositories
	riders *RiderService
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(repos repository.Repositories, riders *RiderService) *FavoriteService {
	return &FavoriteService{repos: repos, riders: riders}
}

// Add marks a rider as favorite. Adding twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, p *Principal, riderID string) error {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return err
	}
	if _, _, err := lookupRider(ctx, s.repos, riderID); err != nil {
		return err
	}
	return s.repos.Favorites.Add(ctx, p.ID, riderID)
}

// Remove unmarks a rider.
func (s *FavoriteService) Remove(ctx context.Context, p *Principal, riderID string) error {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return err
	}
	if !validID(riderID) {
		return ErrNotFound
	}
	return s.repos.Favorites.Remove(ctx, p.ID, riderID)
}

// List returns the cards of the caller's favorite riders.
func (s *FavoriteService) List(ctx context.Context, p *Principal) ([]*redis.CachedRider, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}

	favorites, err := s.repos.Favorites.ListByMerchant(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	cards := make([]*redis.CachedRider, 0, len(favorites))
	for _, f := range favorites {
		card, err := s.riders.Get(ctx, f.RiderID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
