package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bemyrider/internal/domain"
	"bemyrider/internal/service"
)

func paidBooking(id, paymentIntentID string, status domain.PaymentStatus) *domain.Booking {
	start := time.Date(2026, 11, 3, 19, 30, 0, 0, time.UTC)
	return &domain.Booking{
		ID:                    id,
		MerchantID:            merchantID,
		RiderID:               riderID,
		StartTime:             start,
		EndTime:               start.Add(2 * time.Hour),
		ServiceDurationHours:  decimal.NewFromInt(2),
		GrossAmount:           decimal.RequireFromString("17.00"),
		NetAmount:             decimal.RequireFromString("17.00"),
		Status:                domain.BookingConfirmed,
		PaymentStatus:         status,
		StripePaymentIntentID: paymentIntentID,
	}
}

func TestWebhook_InvalidSignature_NoChange(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "acct_new", false)
	f.gateway.NextEvent = &service.WebhookEvent{
		ID:      "evt_1",
		Type:    service.EventAccountUpdated,
		Account: &service.ConnectedAccount{ID: "acct_new", DetailsSubmitted: true, ChargesEnabled: true},
	}

	_, err := f.webhooks.HandleEvent(context.Background(), []byte(`{}`), "t=1,v1=forged")
	require.ErrorIs(t, err, service.ErrInvalidSignature)

	rider, _ := f.store.Rider(newRiderID)
	require.False(t, rider.StripeOnboardingComplete)
	require.False(t, f.locks.IsLocked("event:evt_1"))
}

func TestWebhook_AccountUpdated_ReadyMarksOnboarded(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "acct_new", false)
	f.gateway.NextEvent = &service.WebhookEvent{
		ID:      "evt_2",
		Type:    service.EventAccountUpdated,
		Account: &service.ConnectedAccount{ID: "acct_new", DetailsSubmitted: true, ChargesEnabled: true},
	}

	event, err := f.webhooks.HandleEvent(context.Background(), []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	require.Equal(t, "evt_2", event.ID)

	rider, _ := f.store.Rider(newRiderID)
	require.True(t, rider.StripeOnboardingComplete)
	require.Contains(t, f.publisher.Types(), "rider.onboarded")
}

func TestWebhook_AccountUpdated_NotReady_NeverClearsFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		account service.ConnectedAccount
	}{
		{"details missing", service.ConnectedAccount{ID: riderAccountID, ChargesEnabled: true}},
		{"charges disabled", service.ConnectedAccount{ID: riderAccountID, DetailsSubmitted: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			account := tt.account
			f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_3", Type: service.EventAccountUpdated, Account: &account}

			_, err := f.webhooks.HandleEvent(context.Background(), []byte(`{}`), f.gateway.ValidSignature)
			require.NoError(t, err)

			rider, _ := f.store.Rider(riderID)
			require.True(t, rider.StripeOnboardingComplete)
		})
	}
}

func TestWebhook_DuplicateDelivery_AppliedOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	bookingID := "9c1e0d2f-0000-4000-8000-000000000001"
	f.store.AddBooking(paidBooking(bookingID, "pi_dup", domain.PaymentPending))
	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_dup", Type: service.EventPaymentIntentSucceeded, PaymentIntentID: "pi_dup"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
		require.NoError(t, err)
	}

	booking, _ := f.store.Booking(bookingID)
	require.Equal(t, domain.PaymentPaid, booking.PaymentStatus)

	paid := 0
	for _, typ := range f.publisher.Types() {
		if typ == "booking.paid" {
			paid++
		}
	}
	require.Equal(t, 1, paid)
}

func TestWebhook_PaymentLifecycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		eventType string
		from      domain.PaymentStatus
		want      domain.PaymentStatus
	}{
		{"succeeded pays pending", service.EventPaymentIntentSucceeded, domain.PaymentPending, domain.PaymentPaid},
		{"succeeded leaves refunded", service.EventPaymentIntentSucceeded, domain.PaymentRefunded, domain.PaymentRefunded},
		{"refund of paid", service.EventChargeRefunded, domain.PaymentPaid, domain.PaymentRefunded},
		{"refund of pending", service.EventChargeRefunded, domain.PaymentPending, domain.PaymentRefunded},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			bookingID := "9c1e0d2f-0000-4000-8000-000000000002"
			f.store.AddBooking(paidBooking(bookingID, "pi_life", tt.from))
			f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_" + tt.name, Type: tt.eventType, PaymentIntentID: "pi_life"}

			_, err := f.webhooks.HandleEvent(context.Background(), []byte(`{}`), f.gateway.ValidSignature)
			require.NoError(t, err)

			booking, _ := f.store.Booking(bookingID)
			require.Equal(t, tt.want, booking.PaymentStatus)
		})
	}
}

func TestWebhook_UnknownIntentOrType_Acknowledged(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_orphan", Type: service.EventPaymentIntentSucceeded, PaymentIntentID: "pi_unknown"}
	_, err := f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)

	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_other", Type: "customer.created"}
	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)

	require.Equal(t, 0, f.store.CountBookings())
}

func countType(types []string, want string) int {
	n := 0
	for _, typ := range types {
		if typ == want {
			n++
		}
	}
	return n
}

func TestWebhook_AccountUpdated_DuplicateDelivery_AppliedOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "acct_new", false)
	f.gateway.NextEvent = &service.WebhookEvent{
		ID:      "evt_acct_dup",
		Type:    service.EventAccountUpdated,
		Account: &service.ConnectedAccount{ID: "acct_new", DetailsSubmitted: true, ChargesEnabled: true},
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
		require.NoError(t, err)
	}

	rider, _ := f.store.Rider(newRiderID)
	require.True(t, rider.StripeOnboardingComplete)
	require.Equal(t, 1, countType(f.publisher.Types(), "rider.onboarded"))
	require.Equal(t, 72*time.Hour, f.locks.TTL("event:evt_acct_dup"))
}

func TestWebhook_PersistFailure_AcknowledgedAndRetryable(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "acct_new", false)
	f.store.MarkOnboardingCompleteError = errors.New("connection reset")
	f.gateway.NextEvent = &service.WebhookEvent{
		ID:      "evt_acct_retry",
		Type:    service.EventAccountUpdated,
		Account: &service.ConnectedAccount{ID: "acct_new", DetailsSubmitted: true, ChargesEnabled: true},
	}
	ctx := context.Background()

	event, err := f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	require.Equal(t, "evt_acct_retry", event.ID)
	require.False(t, f.locks.IsLocked("event:evt_acct_retry"))
	rider, _ := f.store.Rider(newRiderID)
	require.False(t, rider.StripeOnboardingComplete)

	f.store.MarkOnboardingCompleteError = nil
	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	rider, _ = f.store.Rider(newRiderID)
	require.True(t, rider.StripeOnboardingComplete)
	require.True(t, f.locks.IsLocked("event:evt_acct_retry"))
}

func TestWebhook_NoMatchingBooking_RedeliveryApplies(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.CreateSettlementError = errors.New("connection reset")
	ctx := context.Background()

	_, err := f.payments.CreatePaymentIntent(ctx, merchant(), paymentIntentRequest("17.00"))
	var partial *service.PartialFailureError
	require.True(t, errors.As(err, &partial))
	piID := partial.ExternalID

	// Paid before the booking row exists: nothing to update, so nothing is remembered.
	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_early", Type: service.EventPaymentIntentSucceeded, PaymentIntentID: piID}
	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	require.False(t, f.locks.IsLocked("event:evt_early"))

	// The processor still reports the intent as pending when the booking is written.
	f.store.CreateSettlementError = nil
	booking, err := f.payments.ResolveOrphan(ctx, piID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, booking.PaymentStatus)

	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	stored, _ := f.store.Booking(booking.ID)
	require.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
}

func TestResolveOrphan_TakesPaymentStatusFromProcessor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		upstream domain.PaymentStatus
	}{
		{"paid", domain.PaymentPaid},
		{"refunded", domain.PaymentRefunded},
		{"pending", domain.PaymentPending},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			f.store.CreateSettlementError = errors.New("connection reset")
			ctx := context.Background()

			_, err := f.payments.CreatePaymentIntent(ctx, merchant(), paymentIntentRequest("17.00"))
			var partial *service.PartialFailureError
			require.True(t, errors.As(err, &partial))

			f.gateway.SetIntentStatus(partial.ExternalID, tt.upstream)
			f.store.CreateSettlementError = nil

			booking, err := f.payments.ResolveOrphan(ctx, partial.ExternalID)
			require.NoError(t, err)
			require.Equal(t, domain.BookingConfirmed, booking.Status)
			require.Equal(t, tt.upstream, booking.PaymentStatus)

			// A late duplicate of the success event changes nothing.
			f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_late", Type: service.EventPaymentIntentSucceeded, PaymentIntentID: partial.ExternalID}
			_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
			require.NoError(t, err)
			stored, _ := f.store.Booking(booking.ID)
			if tt.upstream == domain.PaymentPending {
				require.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
				return
			}
			require.Equal(t, tt.upstream, stored.PaymentStatus)
		})
	}
}

func TestResolveOrphan_ProcessorUnavailable_KeepsLedgerEntry(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.CreateSettlementError = errors.New("connection reset")
	ctx := context.Background()

	_, err := f.payments.CreatePaymentIntent(ctx, merchant(), paymentIntentRequest("17.00"))
	var partial *service.PartialFailureError
	require.True(t, errors.As(err, &partial))

	f.store.CreateSettlementError = nil
	f.gateway.GetPaymentIntentError = errors.New("api_connection_error")
	_, err = f.payments.ResolveOrphan(ctx, partial.ExternalID)
	require.ErrorIs(t, err, service.ErrPaymentProvider)
	require.Equal(t, 0, f.store.CountBookings())

	orphans, err := f.payments.ListOrphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
}

func TestWebhook_LapsedClaim_RedeliveryApplies(t *testing.T) {
	t.Parallel()
	f := newFixture()
	bookingID := "9c1e0d2f-0000-4000-8000-000000000003"
	f.store.AddBooking(paidBooking(bookingID, "pi_crash", domain.PaymentPending))
	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_crash", Type: service.EventPaymentIntentSucceeded, PaymentIntentID: "pi_crash"}
	ctx := context.Background()

	// A delivery that claimed the event and died before applying it.
	claimed, err := f.locks.AcquireEventLock(ctx, "evt_crash", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	booking, _ := f.store.Booking(bookingID)
	require.Equal(t, domain.PaymentPending, booking.PaymentStatus)

	f.locks.Expire("event:evt_crash")
	_, err = f.webhooks.HandleEvent(ctx, []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	booking, _ = f.store.Booking(bookingID)
	require.Equal(t, domain.PaymentPaid, booking.PaymentStatus)
}

func TestWebhook_UndecodableObject_Acknowledged(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.gateway.NextEvent = &service.WebhookEvent{
		ID:          "evt_bad_object",
		Type:        service.EventAccountUpdated,
		DecodeError: errors.New("decode account: unexpected end of JSON input"),
	}

	event, err := f.webhooks.HandleEvent(context.Background(), []byte(`{}`), f.gateway.ValidSignature)
	require.NoError(t, err)
	require.Equal(t, "evt_bad_object", event.ID)
	require.False(t, f.locks.IsLocked("event:evt_bad_object"))
}
