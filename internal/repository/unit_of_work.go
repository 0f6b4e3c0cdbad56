package repository

import "context"

// Repositories groups repositories that share one transaction.
type Repositories struct {
	Profiles        ProfileRepository
	Riders          RiderRepository
	ServiceRequests ServiceRequestRepository
	Bookings        BookingRepository
	Reviews         ReviewRepository
	Receipts        ReceiptRepository
	Favorites       FavoriteRepository
}

// UnitOfWork runs fn against transaction-scoped repositories. The transaction
// commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
