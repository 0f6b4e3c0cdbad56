package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a booking repository over a pool or a transaction.
func NewBookingRepository(q Querier) *BookingRepository {
	return &BookingRepository{q: q}
}

const bookingColumns = `
	id, esercente_id, rider_id, start_time, end_time, service_duration_hours, gross_amount,
	tax_withholding_amount, net_amount, status, payment_status, stripe_payment_intent_id, created_at
`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var paymentIntentID sql.NullString

	if err := row.Scan(
		&b.ID,
		&b.MerchantID,
		&b.RiderID,
		&b.StartTime,
		&b.EndTime,
		&b.ServiceDurationHours,
		&b.GrossAmount,
		&b.TaxWithholdingAmount,
		&b.NetAmount,
		&b.Status,
		&b.PaymentStatus,
		&paymentIntentID,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}

	b.StripePaymentIntentID = paymentIntentID.String
	return &b, nil
}

func bookingArgs(b *domain.Booking) []any {
	return []any{
		b.ID,
		b.MerchantID,
		b.RiderID,
		b.StartTime,
		b.EndTime,
		b.ServiceDurationHours,
		b.GrossAmount,
		b.TaxWithholdingAmount,
		b.NetAmount,
		b.Status,
		b.PaymentStatus,
		nullString(b.StripePaymentIntentID),
		b.CreatedAt,
	}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO prenotazioni (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query, bookingArgs(b)...)
	return err
}

// CreateSettlement persists a booking tied to a payment intent, once per intent.
func (r *BookingRepository) CreateSettlement(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if b.StripePaymentIntentID == "" {
		return nil, errors.New("settlement booking requires a payment intent id")
	}

	query := `
		INSERT INTO prenotazioni (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (stripe_payment_intent_id) DO NOTHING
		RETURNING ` + bookingColumns

	stored, err := scanBooking(r.q.QueryRowContext(ctx, query, bookingArgs(b)...))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Conflict: the intent already has its booking.
	existingQuery := `SELECT ` + bookingColumns + ` FROM prenotazioni WHERE stripe_payment_intent_id = $1`
	return scanBooking(r.q.QueryRowContext(ctx, existingQuery, b.StripePaymentIntentID))
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM prenotazioni WHERE id = $1`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListByParticipant retrieves bookings where the profile is merchant or rider.
func (r *BookingRepository) ListByParticipant(ctx context.Context, profileID string) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM prenotazioni
		WHERE esercente_id = $1 OR rider_id = $1
		ORDER BY start_time DESC
		LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking from one status to another.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error {
	query := `UPDATE prenotazioni SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrConditionFailed
	}
	return nil
}

// UpdatePaymentStatusByIntent moves the payment status of the booking tied to a payment intent.
func (r *BookingRepository) UpdatePaymentStatusByIntent(ctx context.Context, paymentIntentID string, from []domain.PaymentStatus, to domain.PaymentStatus) (int64, error) {
	query := `
		UPDATE prenotazioni
		SET payment_status = $1
		WHERE stripe_payment_intent_id = $2 AND payment_status = ANY($3)
	`

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	result, err := r.q.ExecContext(ctx, query, to, paymentIntentID, pq.Array(allowed))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteByParticipant removes every booking where the profile is merchant or rider.
func (r *BookingRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM prenotazioni WHERE esercente_id = $1 OR rider_id = $1`, profileID)
	return err
}

var _ repository.BookingRepository = (*BookingRepository)(nil)
