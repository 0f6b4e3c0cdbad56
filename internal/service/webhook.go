package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/observability"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

const (
	// webhookEventClaimTTL bounds how long a crashed delivery can block retries of the same event.
	webhookEventClaimTTL = 5 * time.Minute
	webhookEventLockTTL  = 72 * time.Hour
)

// WebhookService reconciles onboarding and payment state from processor events.
type WebhookService struct {
	repos         repository.Repositories
	gateway       PaymentGateway
	locks         redis.LockStoreInterface
	cache         redis.RiderCacheInterface
	notifications *NotificationService
	logger        *zap.Logger
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	repos repository.Repositories,
	gateway PaymentGateway,
	locks redis.LockStoreInterface,
	cache redis.RiderCacheInterface,
	notifications *NotificationService,
	logger *zap.Logger,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		repos:         repos,
		gateway:       gateway,
		locks:         locks,
		cache:         cache,
		notifications: notifications,
		logger:        logger,
	}
}

// HandleEvent verifies a signed delivery and applies it.
// Only a bad signature is reported as an error. Once verified, a failed or malformed update is logged
// and acknowledged, since every update here is idempotent and a later delivery may apply it.
// An event is remembered as applied only when it changed something, so a redelivery that arrives
// after its booking exists still takes effect.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := s.gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		observability.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	logger := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if event.DecodeError != nil {
		observability.WebhookEvents.WithLabelValues(event.Type, "malformed").Inc()
		logger.Error("webhook event object not decodable", zap.Error(event.DecodeError))
		return event, nil
	}

	claimed := false
	if s.locks != nil && event.ID != "" {
		acquired, err := s.locks.AcquireEventLock(ctx, event.ID, webhookEventClaimTTL)
		switch {
		case err != nil:
			logger.Warn("webhook dedup unavailable, applying event", zap.Error(err))
		case !acquired:
			observability.WebhookEvents.WithLabelValues(event.Type, "duplicate").Inc()
			logger.Info("webhook event already applied")
			return event, nil
		default:
			claimed = true
		}
	}

	changed, err := s.apply(ctx, event, logger)
	if err != nil {
		observability.WebhookEvents.WithLabelValues(event.Type, "persist_failed").Inc()
		logger.Error("webhook event not applied", zap.String("operation", "handle_webhook"), zap.Error(err))
		s.forget(ctx, event, claimed, logger)
		return event, nil
	}

	if !changed {
		observability.WebhookEvents.WithLabelValues(event.Type, "no_change").Inc()
		s.forget(ctx, event, claimed, logger)
		return event, nil
	}

	if claimed {
		if err := s.locks.ExtendEventLock(context.WithoutCancel(ctx), event.ID, webhookEventLockTTL); err != nil {
			logger.Warn("failed to extend webhook event lock", zap.Error(err))
		}
	}
	observability.WebhookEvents.WithLabelValues(event.Type, "applied").Inc()
	return event, nil
}

// forget drops the event claim so a later delivery is applied again.
func (s *WebhookService) forget(ctx context.Context, event *WebhookEvent, claimed bool, logger *zap.Logger) {
	if !claimed {
		return
	}
	if err := s.locks.ReleaseEventLock(context.WithoutCancel(ctx), event.ID); err != nil {
		logger.Warn("failed to release webhook event lock", zap.Error(err))
	}
}

// apply reports whether the event changed any stored state.
func (s *WebhookService) apply(ctx context.Context, event *WebhookEvent, logger *zap.Logger) (bool, error) {
	switch event.Type {
	case EventAccountUpdated:
		return s.applyAccountUpdated(ctx, event.Account, logger)
	case EventPaymentIntentSucceeded:
		return s.applyPaymentStatus(ctx, event.PaymentIntentID, []domain.PaymentStatus{domain.PaymentPending}, domain.PaymentPaid, logger)
	case EventChargeRefunded:
		return s.applyPaymentStatus(ctx, event.PaymentIntentID, []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid}, domain.PaymentRefunded, logger)
	default:
		logger.Debug("webhook event ignored")
		return false, nil
	}
}

// applyAccountUpdated only ever sets the onboarding flag. An account that regressed is left as is.
func (s *WebhookService) applyAccountUpdated(ctx context.Context, account *ConnectedAccount, logger *zap.Logger) (bool, error) {
	if account == nil || account.ID == "" {
		return false, nil
	}
	if !account.ReadyForPayments() {
		logger.Info("connected account not ready for payments",
			zap.String("stripe_account_id", account.ID),
			zap.Bool("details_submitted", account.DetailsSubmitted),
			zap.Bool("charges_enabled", account.ChargesEnabled),
		)
		return false, nil
	}

	riderIDs, err := s.repos.Riders.MarkOnboardingComplete(ctx, account.ID)
	if err != nil {
		return false, fmt.Errorf("mark onboarding complete for %s: %w", account.ID, err)
	}
	if len(riderIDs) == 0 {
		logger.Warn("no rider for connected account", zap.String("stripe_account_id", account.ID))
		return false, nil
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRider(ctx, riderIDs...); err != nil {
			logger.Warn("failed to invalidate rider cache", zap.Error(err))
		}
	}
	for _, id := range riderIDs {
		s.notifications.NotifyRiderOnboarded(ctx, id, account.ID)
	}
	return true, nil
}

func (s *WebhookService) applyPaymentStatus(ctx context.Context, paymentIntentID string, from []domain.PaymentStatus, to domain.PaymentStatus, logger *zap.Logger) (bool, error) {
	if paymentIntentID == "" {
		return false, nil
	}

	n, err := s.repos.Bookings.UpdatePaymentStatusByIntent(ctx, paymentIntentID, from, to)
	if err != nil {
		return false, fmt.Errorf("set payment status %s for %s: %w", to, paymentIntentID, err)
	}
	if n == 0 {
		logger.Info("payment status unchanged",
			zap.String("payment_intent_id", paymentIntentID),
			zap.String("payment_status", string(to)),
		)
		return false, nil
	}

	s.notifications.NotifyPaymentStatusChanged(ctx, paymentIntentID, to)
	return true, nil
}
