package domain

import "time"

// Rating bounds for a review.
const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review (recensione) is the merchant's rating of a completed booking.
type Review struct {
	ID         string
	BookingID  string
	MerchantID string
	RiderID    string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// Favorite marks a rider as preferred by a merchant.
type Favorite struct {
	MerchantID string
	RiderID    string
	CreatedAt  time.Time
}
