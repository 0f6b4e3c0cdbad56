package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/observability"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
)

const checkoutLockTTL = 30 * time.Second

// PaymentService computes fee splits, creates destination charges and persists settlement bookings.
type PaymentService struct {
	repos         repository.Repositories
	gateway       PaymentGateway
	ledger        redis.OrphanLedgerInterface
	locks         redis.LockStoreInterface
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	repos repository.Repositories,
	gateway PaymentGateway,
	ledger redis.OrphanLedgerInterface,
	locks redis.LockStoreInterface,
	notifications *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repos:         repos,
		gateway:       gateway,
		ledger:        ledger,
		locks:         locks,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// CreatePaymentIntentRequest contains the parameters for a merchant-initiated charge.
type CreatePaymentIntentRequest struct {
	RiderID        string
	MerchantID     string
	StartTime      time.Time
	EndTime        time.Time
	Hours          decimal.Decimal
	RiderAmount    decimal.Decimal
	IdempotencyKey string
}

// PaymentIntentResult is returned once the charge exists upstream and the booking is stored.
type PaymentIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
	Fees            domain.FeeBreakdown
	Booking         *domain.Booking
}

// settlement is a charge about to be created for a rider.
type settlement struct {
	rider          *domain.RiderDetails
	merchantID     string
	start          time.Time
	end            time.Time
	hours          decimal.Decimal
	riderAmount    decimal.Decimal
	idempotencyKey string
	metadata       map[string]string
}

// CreatePaymentIntent charges the calling merchant for riderAmount plus the platform fee,
// routed to the rider's connected account, and stores a confirmed booking.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, p *Principal, req CreatePaymentIntentRequest) (*PaymentIntentResult, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}

	var absent []string
	if req.RiderID == "" {
		absent = append(absent, "riderId")
	}
	if req.MerchantID == "" {
		absent = append(absent, "merchantId")
	}
	if req.StartTime.IsZero() {
		absent = append(absent, "startTime")
	}
	if req.EndTime.IsZero() {
		absent = append(absent, "endTime")
	}
	if req.Hours.IsZero() {
		absent = append(absent, "hours")
	}
	if req.RiderAmount.IsZero() {
		absent = append(absent, "riderAmount")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}

	if req.MerchantID != p.ID {
		return nil, ErrForbidden
	}
	if err := validateBookingHours("hours", req.Hours); err != nil {
		return nil, err
	}
	if !req.RiderAmount.IsPositive() {
		return nil, invalid("riderAmount", "must be positive")
	}
	if !domain.HasCentPrecision(req.RiderAmount) {
		return nil, invalid("riderAmount", "must have at most 2 decimal places")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, invalid("endTime", "must be after startTime")
	}

	_, rider, err := lookupRider(ctx, s.repos, req.RiderID)
	if err != nil {
		return nil, err
	}

	var key string
	if req.IdempotencyKey != "" {
		key = "payment-intent:" + p.ID + ":" + req.IdempotencyKey
	}

	return s.settle(ctx, settlement{
		rider:          rider,
		merchantID:     p.ID,
		start:          req.StartTime.UTC(),
		end:            req.EndTime.UTC(),
		hours:          req.Hours,
		riderAmount:    req.RiderAmount,
		idempotencyKey: key,
	})
}

// CheckoutServiceRequest charges an accepted service request at the rider's current rate.
// The charge is keyed by the request id, so repeating a checkout never charges twice.
func (s *PaymentService) CheckoutServiceRequest(ctx context.Context, p *Principal, requestID string) (*PaymentIntentResult, error) {
	if err := p.Require(domain.RoleMerchant); err != nil {
		return nil, err
	}
	if !validID(requestID) {
		return nil, ErrNotFoundOrForbidden
	}

	req, err := s.repos.ServiceRequests.GetByID(ctx, requestID)
	if err != nil {
		return nil, hideNotFound(err)
	}
	if req.MerchantID != p.ID {
		return nil, ErrNotFoundOrForbidden
	}
	if req.Status != domain.ServiceRequestAccepted {
		return nil, fmt.Errorf("service request is %s, only accepted requests can be checked out: %w", req.Status, ErrInvalidState)
	}

	if s.locks != nil {
		acquired, err := s.locks.AcquireCheckoutLock(ctx, requestID, checkoutLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrConflict
		}
		defer func() {
			if err := s.locks.ReleaseCheckoutLock(context.WithoutCancel(ctx), requestID); err != nil {
				s.logger.Warn("failed to release checkout lock", zap.String("request_id", requestID), zap.Error(err))
			}
		}()
	}

	_, rider, err := lookupRider(ctx, s.repos, req.RiderID)
	if err != nil {
		return nil, err
	}

	start, err := req.StartsAt()
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, settlement{
		rider:          rider,
		merchantID:     p.ID,
		start:          start,
		end:            start.Add(domain.HoursToDuration(req.DurationHours)),
		hours:          req.DurationHours,
		riderAmount:    domain.GrossAmount(req.DurationHours, rider.HourlyRate),
		idempotencyKey: "service-request:" + req.ID,
		metadata:       map[string]string{"serviceRequestId": req.ID},
	})
}

func (s *PaymentService) settle(ctx context.Context, st settlement) (*PaymentIntentResult, error) {
	if !st.rider.CanReceivePayments() {
		return nil, ErrOnboardingIncomplete
	}

	fees := domain.ComputeFees(st.riderAmount)
	metadata := map[string]string{
		"riderId":     st.rider.ProfileID,
		"merchantId":  st.merchantID,
		"startTime":   st.start.Format(time.RFC3339),
		"endTime":     st.end.Format(time.RFC3339),
		"hours":       st.hours.String(),
		"riderAmount": fees.RiderAmount.StringFixed(2),
		"platformFee": fees.PlatformFee.StringFixed(2),
		"totalAmount": fees.TotalAmount.StringFixed(2),
	}
	for k, v := range st.metadata {
		metadata[k] = v
	}

	started := s.now()
	intent, err := s.gateway.CreatePaymentIntent(ctx, PaymentIntentParams{
		AmountMinor:          fees.TotalMinorUnits(),
		ApplicationFeeMinor:  fees.FeeMinorUnits(),
		DestinationAccountID: st.rider.StripeAccountID,
		Metadata:             metadata,
		IdempotencyKey:       st.idempotencyKey,
	})
	observability.PaymentIntentLatency.Observe(s.now().Sub(started).Seconds())
	if err != nil {
		s.logger.Error("create payment intent failed",
			zap.String("operation", "create_payment_intent"),
			zap.String("rider_id", st.rider.ProfileID),
			zap.String("merchant_id", st.merchantID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create payment intent: %w: %w", ErrPaymentProvider, err)
	}
	observability.PaymentIntentsCreated.Inc()

	booking := &domain.Booking{
		ID:                    uuid.New().String(),
		MerchantID:            st.merchantID,
		RiderID:               st.rider.ProfileID,
		StartTime:             st.start,
		EndTime:               st.end,
		ServiceDurationHours:  st.hours,
		GrossAmount:           fees.RiderAmount,
		NetAmount:             fees.RiderAmount,
		Status:                domain.BookingConfirmed,
		PaymentStatus:         domain.PaymentPending,
		StripePaymentIntentID: intent.ID,
		CreatedAt:             s.now().UTC(),
	}

	// The charge exists upstream now; a client disconnect must not abort the local write.
	persistCtx := context.WithoutCancel(ctx)
	stored, err := s.repos.Bookings.CreateSettlement(persistCtx, booking)
	if err != nil {
		return nil, s.partialFailure(persistCtx, intent.ID, booking, err)
	}

	s.notifications.NotifyBookingCreated(persistCtx, stored)
	return &PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Fees:            fees,
		Booking:         stored,
	}, nil
}

func (s *PaymentService) partialFailure(ctx context.Context, paymentIntentID string, booking *domain.Booking, cause error) error {
	observability.PartialFailures.Inc()
	s.logger.Error("payment intent created but booking not persisted",
		zap.String("operation", "create_payment_intent"),
		zap.String("payment_intent_id", paymentIntentID),
		zap.String("rider_id", booking.RiderID),
		zap.String("merchant_id", booking.MerchantID),
		zap.Error(cause),
	)

	if s.ledger != nil {
		orphan := &redis.OrphanedIntent{
			PaymentIntentID: paymentIntentID,
			RiderID:         booking.RiderID,
			MerchantID:      booking.MerchantID,
			StartTime:       booking.StartTime,
			EndTime:         booking.EndTime,
			Hours:           booking.ServiceDurationHours,
			RiderAmount:     booking.GrossAmount,
			Cause:           cause.Error(),
			RecordedAt:      s.now().UTC(),
		}
		if err := s.ledger.Record(ctx, orphan); err != nil {
			s.logger.Error("failed to record orphaned payment intent",
				zap.String("payment_intent_id", paymentIntentID),
				zap.Error(err),
			)
		}
	}

	return &PartialFailureError{Operation: "create_payment_intent", ExternalID: paymentIntentID, Cause: cause}
}

// ListOrphans returns payment intents still waiting for a booking row.
func (s *PaymentService) ListOrphans(ctx context.Context) ([]*redis.OrphanedIntent, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.List(ctx)
}

// ResolveOrphan writes the missing booking for an orphaned intent and clears the ledger entry.
// The payment status is read from the processor, because webhooks for the intent may have
// arrived while no booking existed. Writing is keyed by the payment intent id, so resolving
// twice is harmless.
func (s *PaymentService) ResolveOrphan(ctx context.Context, paymentIntentID string) (*domain.Booking, error) {
	if s.ledger == nil {
		return nil, redis.ErrOrphanNotFound
	}

	orphan, err := s.ledger.Get(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	paymentStatus := domain.PaymentPending
	if s.gateway != nil {
		intent, err := s.gateway.GetPaymentIntent(ctx, paymentIntentID)
		if err != nil {
			return nil, fmt.Errorf("retrieve payment intent %s: %w: %w", paymentIntentID, ErrPaymentProvider, err)
		}
		if intent.Status != "" {
			paymentStatus = intent.Status
		}
	}

	stored, err := s.repos.Bookings.CreateSettlement(ctx, &domain.Booking{
		ID:                    uuid.New().String(),
		MerchantID:            orphan.MerchantID,
		RiderID:               orphan.RiderID,
		StartTime:             orphan.StartTime,
		EndTime:               orphan.EndTime,
		ServiceDurationHours:  orphan.Hours,
		GrossAmount:           orphan.RiderAmount,
		NetAmount:             orphan.RiderAmount,
		Status:                domain.BookingConfirmed,
		PaymentStatus:         paymentStatus,
		StripePaymentIntentID: orphan.PaymentIntentID,
		CreatedAt:             s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist booking for %s: %w", paymentIntentID, err)
	}

	if err := s.ledger.Remove(ctx, paymentIntentID); err != nil {
		return nil, err
	}

	s.logger.Info("resolved orphaned payment intent",
		zap.String("payment_intent_id", paymentIntentID),
		zap.String("booking_id", stored.ID),
		zap.String("payment_status", string(stored.PaymentStatus)),
	)
	return stored, nil
}
