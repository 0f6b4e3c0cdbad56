package service

import (
	"context"

	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/events"
)

// NotificationService turns committed state changes into domain events.
// Delivery is best effort: a failed publish is logged and never fails the operation.
type NotificationService struct {
	publisher events.Publisher
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher events.Publisher, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{publisher: publisher, logger: logger}
}

// NotifyServiceRequestCreated tells the addressed rider about a new request.
func (s *NotificationService) NotifyServiceRequestCreated(ctx context.Context, req *domain.ServiceRequest) {
	s.send(ctx, events.New(events.ServiceRequestCreated, req.ID, map[string]string{
		"merchant_id":    req.MerchantID,
		"rider_id":       req.RiderID,
		"requested_date": req.RequestedDate.Format(dateLayout),
		"start_time":     req.StartTime,
		"duration_hours": req.DurationHours.String(),
	}))
}

// NotifyServiceRequestResponded tells the merchant how the rider answered.
func (s *NotificationService) NotifyServiceRequestResponded(ctx context.Context, req *domain.ServiceRequest) {
	s.send(ctx, events.New(events.ServiceRequestResponded, req.ID, map[string]string{
		"merchant_id": req.MerchantID,
		"rider_id":    req.RiderID,
		"status":      string(req.Status),
	}))
}

// NotifyBookingCreated announces a new booking to both parties.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking) {
	s.send(ctx, events.New(events.BookingCreated, booking.ID, bookingAttributes(booking)))
}

// NotifyBookingStatusChanged announces a lifecycle transition.
func (s *NotificationService) NotifyBookingStatusChanged(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) {
	attrs := bookingAttributes(booking)
	attrs["from"] = string(from)
	s.send(ctx, events.New(events.BookingStatusChanged, booking.ID, attrs))
}

// NotifyPaymentStatusChanged announces a settlement change reported by the processor.
func (s *NotificationService) NotifyPaymentStatusChanged(ctx context.Context, paymentIntentID string, status domain.PaymentStatus) {
	eventType := events.BookingPaid
	if status == domain.PaymentRefunded {
		eventType = events.BookingRefunded
	}
	s.send(ctx, events.New(eventType, paymentIntentID, map[string]string{
		"payment_intent_id": paymentIntentID,
		"payment_status":    string(status),
	}))
}

// NotifyRiderOnboarded announces riders whose connected account can now receive payments.
func (s *NotificationService) NotifyRiderOnboarded(ctx context.Context, riderID, accountID string) {
	s.send(ctx, events.New(events.RiderOnboarded, riderID, map[string]string{
		"stripe_account_id": accountID,
	}))
}

func bookingAttributes(b *domain.Booking) map[string]string {
	return map[string]string{
		"merchant_id":    b.MerchantID,
		"rider_id":       b.RiderID,
		"status":         string(b.Status),
		"payment_status": string(b.PaymentStatus),
		"gross_amount":   b.GrossAmount.StringFixed(2),
	}
}

// send is a no-op on a nil service.
func (s *NotificationService) send(ctx context.Context, event events.Event) {
	if s == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}
}
