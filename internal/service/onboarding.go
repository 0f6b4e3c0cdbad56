package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

// Onboarding outcomes reported to the rider dashboard.
const (
	OnboardingCreated         = "created"
	OnboardingPending         = "pending"
	OnboardingAlreadyComplete = "already_complete"
	OnboardingNoAccount       = "no_stripe_account"
	OnboardingHasAccount      = "has_stripe_account"
)

// OnboardingResult tells the rider where to continue onboarding.
type OnboardingResult struct {
	URL             string
	StripeAccountID string
	Status          string
	Complete        bool
}

// OnboardingService manages riders' connected accounts at the payment processor.
type OnboardingService struct {
	repos      repository.Repositories
	gateway    PaymentGateway
	cache      redis.RiderCacheInterface
	refreshURL string
	returnURL  string
	logger     *zap.Logger
}

// NewOnboardingService creates a new OnboardingService. Links send riders back to baseURL.
func NewOnboardingService(repos repository.Repositories, gateway PaymentGateway, cache redis.RiderCacheInterface, baseURL string, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &OnboardingService{
		repos:      repos,
		gateway:    gateway,
		cache:      cache,
		refreshURL: baseURL + "/dashboard/rider",
		returnURL:  baseURL + "/dashboard/rider?onboarding_complete=true",
		logger:     logger,
	}
}

// Start creates the caller's connected account if missing and returns an onboarding link.
// An existing account is re-checked upstream first and reused.
func (s *OnboardingService) Start(ctx context.Context, p *Principal) (*OnboardingResult, error) {
	if err := p.Require(domain.RoleRider); err != nil {
		return nil, err
	}

	rider, err := s.repos.Riders.GetByProfileID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("rider %s: %w", p.ID, err)
	}

	if rider.StripeAccountID != "" {
		complete, err := s.refresh(ctx, rider)
		if err != nil {
			return nil, err
		}
		if complete {
			return &OnboardingResult{
				URL:             s.returnURL,
				StripeAccountID: rider.StripeAccountID,
				Status:          OnboardingAlreadyComplete,
				Complete:        true,
			}, nil
		}

		url, err := s.gateway.CreateOnboardingLink(ctx, rider.StripeAccountID, s.refreshURL, s.returnURL)
		if err != nil {
			return nil, fmt.Errorf("create onboarding link: %w: %w", ErrPaymentProvider, err)
		}
		return &OnboardingResult{URL: url, StripeAccountID: rider.StripeAccountID, Status: OnboardingPending}, nil
	}

	accountID, err := s.gateway.CreateConnectedAccount(ctx, p.Email)
	if err != nil {
		return nil, fmt.Errorf("create connected account: %w: %w", ErrPaymentProvider, err)
	}

	if err := s.repos.Riders.SetStripeAccount(context.WithoutCancel(ctx), p.ID, accountID); err != nil {
		s.logger.Error("connected account created but not stored",
			zap.String("operation", "start_onboarding"),
			zap.String("rider_id", p.ID),
			zap.String("stripe_account_id", accountID),
			zap.Error(err),
		)
		return nil, &PartialFailureError{Operation: "start_onboarding", ExternalID: accountID, Cause: err}
	}
	s.invalidate(ctx, p.ID)

	url, err := s.gateway.CreateOnboardingLink(ctx, accountID, s.refreshURL, s.returnURL)
	if err != nil {
		return nil, fmt.Errorf("create onboarding link: %w: %w", ErrPaymentProvider, err)
	}

	s.logger.Info("connected account created", zap.String("rider_id", p.ID), zap.String("stripe_account_id", accountID))
	return &OnboardingResult{URL: url, StripeAccountID: accountID, Status: OnboardingCreated}, nil
}

// Status reports the caller's onboarding state, re-checked upstream.
func (s *OnboardingService) Status(ctx context.Context, p *Principal) (*OnboardingResult, error) {
	if err := p.Require(domain.RoleRider); err != nil {
		return nil, err
	}

	rider, err := s.repos.Riders.GetByProfileID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("rider %s: %w", p.ID, err)
	}
	if rider.StripeAccountID == "" {
		return &OnboardingResult{Status: OnboardingNoAccount}, nil
	}

	complete, err := s.refresh(ctx, rider)
	if err != nil {
		return nil, err
	}
	return &OnboardingResult{StripeAccountID: rider.StripeAccountID, Status: OnboardingHasAccount, Complete: complete}, nil
}

// LoginLink returns a dashboard link for the caller's own connected account.
func (s *OnboardingService) LoginLink(ctx context.Context, p *Principal) (string, error) {
	if err := p.Require(domain.RoleRider); err != nil {
		return "", err
	}

	rider, err := s.repos.Riders.GetByProfileID(ctx, p.ID)
	if err != nil {
		return "", fmt.Errorf("rider %s: %w", p.ID, err)
	}
	if rider.StripeAccountID == "" {
		return "", ErrOnboardingIncomplete
	}

	url, err := s.gateway.CreateLoginLink(ctx, rider.StripeAccountID)
	if err != nil {
		return "", fmt.Errorf("create login link: %w: %w", ErrPaymentProvider, err)
	}
	return url, nil
}

// refresh reads the account upstream and sets the onboarding flag when it became ready.
// The flag is never cleared here.
func (s *OnboardingService) refresh(ctx context.Context, rider *domain.RiderDetails) (bool, error) {
	if rider.StripeOnboardingComplete {
		return true, nil
	}

	account, err := s.gateway.GetAccount(ctx, rider.StripeAccountID)
	if err != nil {
		return false, fmt.Errorf("retrieve account: %w: %w", ErrPaymentProvider, err)
	}
	if !account.ReadyForPayments() {
		return false, nil
	}

	if _, err := s.repos.Riders.MarkOnboardingComplete(ctx, account.ID); err != nil {
		return false, err
	}
	s.invalidate(ctx, rider.ProfileID)
	return true, nil
}

func (s *OnboardingService) invalidate(ctx context.Context, riderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRider(ctx, riderID); err != nil {
		s.logger.Warn("rider cache invalidation failed", zap.String("rider_id", riderID), zap.Error(err))
	}
}
