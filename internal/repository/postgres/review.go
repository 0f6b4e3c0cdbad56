package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// ReviewRepository is a PostgreSQL implementation of repository.ReviewRepository.
type ReviewRepository struct {
	q Querier
}

// NewReviewRepository creates a review repository over a pool or a transaction.
func NewReviewRepository(q Querier) *ReviewRepository {
	return &ReviewRepository{q: q}
}

// Create persists a review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO recensioni (id, prenotazione_id, esercente_id, rider_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		review.ID,
		review.BookingID,
		review.MerchantID,
		review.RiderID,
		review.Rating,
		nullString(review.Comment),
		review.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// ListByRider retrieves the reviews received by a rider, newest first.
func (r *ReviewRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Review, error) {
	query := `
		SELECT id, prenotazione_id, esercente_id, rider_id, rating, comment, created_at
		FROM recensioni WHERE rider_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		var comment sql.NullString
		if err := rows.Scan(
			&review.ID,
			&review.BookingID,
			&review.MerchantID,
			&review.RiderID,
			&review.Rating,
			&comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		review.Comment = comment.String
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

// DeleteByParticipant removes reviews written by or about a profile.
func (r *ReviewRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM recensioni WHERE esercente_id = $1 OR rider_id = $1`, profileID)
	return err
}

// ReceiptRepository is a PostgreSQL implementation of repository.ReceiptRepository.
type ReceiptRepository struct {
	q Querier
}

// NewReceiptRepository creates a receipt repository over a pool or a transaction.
func NewReceiptRepository(q Querier) *ReceiptRepository {
	return &ReceiptRepository{q: q}
}

// Create issues the next receipt number for a booking.
func (r *ReceiptRepository) Create(ctx context.Context, id, bookingID string, date time.Time) (*domain.Receipt, error) {
	query := `
		INSERT INTO occasional_performance_receipts (id, prenotazione_id, receipt_number, receipt_date)
		VALUES ($1, $2, nextval('receipt_number_seq'), $3)
		RETURNING receipt_number
	`

	receipt := &domain.Receipt{ID: id, BookingID: bookingID, ReceiptDate: date}
	if err := r.q.QueryRowContext(ctx, query, id, bookingID, date).Scan(&receipt.ReceiptNumber); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return receipt, nil
}

// GetByBooking returns the receipt issued for a booking.
func (r *ReceiptRepository) GetByBooking(ctx context.Context, bookingID string) (*domain.Receipt, error) {
	query := `
		SELECT id, prenotazione_id, receipt_number, receipt_date
		FROM occasional_performance_receipts
		WHERE prenotazione_id = $1
	`

	var receipt domain.Receipt
	err := r.q.QueryRowContext(ctx, query, bookingID).Scan(
		&receipt.ID, &receipt.BookingID, &receipt.ReceiptNumber, &receipt.ReceiptDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// FavoriteRepository is a PostgreSQL implementation of repository.FavoriteRepository.
type FavoriteRepository struct {
	q Querier
}

// NewFavoriteRepository creates a favorite repository over a pool or a transaction.
func NewFavoriteRepository(q Querier) *FavoriteRepository {
	return &FavoriteRepository{q: q}
}

// Add marks a rider as favorite.
func (r *FavoriteRepository) Add(ctx context.Context, merchantID, riderID string) error {
	query := `
		INSERT INTO merchant_favorites (merchant_id, rider_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (merchant_id, rider_id) DO NOTHING
	`
	_, err := r.q.ExecContext(ctx, query, merchantID, riderID)
	return err
}

// Remove unmarks a rider.
func (r *FavoriteRepository) Remove(ctx context.Context, merchantID, riderID string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM merchant_favorites WHERE merchant_id = $1 AND rider_id = $2`, merchantID, riderID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListByMerchant retrieves the favorite riders of a merchant.
func (r *FavoriteRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Favorite, error) {
	query := `SELECT merchant_id, rider_id, created_at FROM merchant_favorites WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []*domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.MerchantID, &f.RiderID, &f.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, &f)
	}
	return favorites, rows.Err()
}

// DeleteByParticipant removes favorites owned by or pointing to a profile.
func (r *FavoriteRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM merchant_favorites WHERE merchant_id = $1 OR rider_id = $1`, profileID)
	return err
}

var (
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
	_ repository.ReceiptRepository  = (*ReceiptRepository)(nil)
	_ repository.FavoriteRepository = (*FavoriteRepository)(nil)
)
