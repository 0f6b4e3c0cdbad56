package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bemyrider/internal/domain"
	"bemyrider/internal/service"
)

func createBooking(t *testing.T, f *fixture) *domain.Booking {
	t.Helper()
	booking, err := f.bookings.Create(context.Background(), merchant(), service.CreateBookingRequest{
		RiderID:       riderID,
		StartDate:     "2026-11-03",
		StartTime:     "12:00",
		DurationHours: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)
	return booking
}

// ──────────────────────────────────────────────
// 1. DIRECT BOOKING
// ──────────────────────────────────────────────

func TestBookingCreate_CopiesRateIntoAmount(t *testing.T) {
	t.Parallel()
	f := newFixture()

	booking := createBooking(t, f)
	require.Equal(t, domain.BookingPending, booking.Status)
	require.Equal(t, domain.PaymentPending, booking.PaymentStatus)
	require.Equal(t, "12.75", booking.GrossAmount.StringFixed(2))
	require.True(t, booking.NetAmount.Equal(booking.GrossAmount))
	require.Equal(t, "13:30", booking.EndTime.Format("15:04"))

	// A later rate change leaves the booking alone.
	_, err := f.riders.SetHourlyRate(context.Background(), rider(), decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	stored, _ := f.store.Booking(booking.ID)
	require.Equal(t, "12.75", stored.GrossAmount.StringFixed(2))
}

func TestBookingCreate_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	_, err := f.bookings.Create(ctx, rider(), service.CreateBookingRequest{})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.bookings.Create(ctx, merchant(), service.CreateBookingRequest{
		RiderID: riderID, StartDate: "2026-11-03", StartTime: "12:00", DurationHours: decimal.RequireFromString("0.5"),
	})
	require.ErrorIs(t, err, service.ErrValidation)

	// NUMERIC(5,2) would truncate 1.333 and break gross = hours * rate.
	_, err = f.bookings.Create(ctx, merchant(), service.CreateBookingRequest{
		RiderID: riderID, StartDate: "2026-11-03", StartTime: "12:00", DurationHours: decimal.RequireFromString("1.333"),
	})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = f.bookings.Create(ctx, merchant(), service.CreateBookingRequest{
		RiderID: missingID, StartDate: "2026-11-03", StartTime: "12:00", DurationHours: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, service.ErrNotFound)
	require.Equal(t, 0, f.store.CountBookings())
}

// ──────────────────────────────────────────────
// 2. LIFECYCLE
// ──────────────────────────────────────────────

func TestBookingLifecycle_CompleteIssuesReceipt(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	booking := createBooking(t, f)

	for _, to := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingInProgress, domain.BookingCompleted} {
		updated, err := f.bookings.Transition(ctx, rider(), booking.ID, to)
		require.NoError(t, err)
		require.Equal(t, to, updated.Status)
	}

	details, _ := f.store.Rider(riderID)
	require.Equal(t, 1, details.CompletedJobs)

	receipt, _, err := f.receipts.GetReceipt(ctx, merchant(), booking.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), receipt.ReceiptNumber)

	text := f.receipts.FormatReceipt(receipt, booking)
	require.Contains(t, text, "RICEVUTA PRESTAZIONE OCCASIONALE")
	require.Contains(t, text, "EUR 12.75")
}

func TestBookingTransition_IllegalMoves(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	booking := createBooking(t, f)

	_, err := f.bookings.Transition(ctx, rider(), booking.ID, domain.BookingCompleted)
	require.ErrorIs(t, err, service.ErrInvalidState)

	_, err = f.bookings.Transition(ctx, merchant(), booking.ID, domain.BookingConfirmed)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.bookings.Transition(ctx, otherRider(), booking.ID, domain.BookingCancelled)
	require.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, err = f.bookings.Transition(ctx, merchant(), booking.ID, domain.BookingCancelled)
	require.NoError(t, err)

	_, err = f.bookings.Transition(ctx, rider(), booking.ID, domain.BookingConfirmed)
	require.ErrorIs(t, err, service.ErrInvalidState)

	stored, _ := f.store.Booking(booking.ID)
	require.Equal(t, domain.BookingCancelled, stored.Status)
}

func TestBookingTransition_ReceiptFailure_RollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	booking := createBooking(t, f)

	for _, to := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingInProgress} {
		_, err := f.bookings.Transition(ctx, rider(), booking.ID, to)
		require.NoError(t, err)
	}

	f.store.IssueReceiptError = errors.New("sequence unavailable")
	_, err := f.bookings.Transition(ctx, rider(), booking.ID, domain.BookingCompleted)
	require.Error(t, err)

	stored, _ := f.store.Booking(booking.ID)
	require.Equal(t, domain.BookingInProgress, stored.Status)
	details, _ := f.store.Rider(riderID)
	require.Equal(t, 0, details.CompletedJobs)
	require.Equal(t, 0, f.store.CountReceipts())
}

func TestBookingGet_OnlyParties(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	booking := createBooking(t, f)

	_, err := f.bookings.Get(ctx, otherMerchant(), booking.ID)
	require.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, _, err = f.receipts.GetReceipt(ctx, otherMerchant(), booking.ID)
	require.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	list, err := f.bookings.List(ctx, rider())
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = f.bookings.List(ctx, otherRider())
	require.NoError(t, err)
	require.Empty(t, list)
}

// ──────────────────────────────────────────────
// 3. REVIEWS
// ──────────────────────────────────────────────

func completeBooking(t *testing.T, f *fixture) *domain.Booking {
	t.Helper()
	booking := createBooking(t, f)
	for _, to := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingInProgress, domain.BookingCompleted} {
		_, err := f.bookings.Transition(context.Background(), rider(), booking.ID, to)
		require.NoError(t, err)
	}
	return booking
}

func TestReview_CompletedBookingOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	booking := completeBooking(t, f)

	review, err := f.reviews.Create(ctx, merchant(), booking.ID, 4, "Puntuale")
	require.NoError(t, err)
	require.Equal(t, riderID, review.RiderID)

	details, _ := f.store.Rider(riderID)
	require.True(t, details.Rating.Valid)
	require.Equal(t, "4.00", details.Rating.Decimal.StringFixed(2))

	_, err = f.reviews.Create(ctx, merchant(), booking.ID, 5, "")
	require.ErrorIs(t, err, service.ErrDuplicateReview)

	reviews, err := f.reviews.ListByRider(ctx, riderID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
}

func TestReview_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	open := createBooking(t, f)
	done := completeBooking(t, f)

	_, err := f.reviews.Create(ctx, merchant(), open.ID, 5, "")
	require.ErrorIs(t, err, service.ErrInvalidState)

	_, err = f.reviews.Create(ctx, otherMerchant(), done.ID, 5, "")
	require.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	for _, rating := range []int{0, 6} {
		_, err = f.reviews.Create(ctx, merchant(), done.ID, rating, "")
		require.ErrorIs(t, err, service.ErrValidation)
	}

	_, err = f.reviews.Create(ctx, rider(), done.ID, 5, "")
	require.ErrorIs(t, err, service.ErrForbidden)
}
