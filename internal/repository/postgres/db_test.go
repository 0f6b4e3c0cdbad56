package postgres

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepositoriesFor_BindsEveryRepositoryToQuerier(t *testing.T) {
	t.Parallel()

	tx := &sql.Tx{}
	repos := repositoriesFor(tx)

	require.Same(t, tx, repos.Profiles.(*ProfileRepository).q)
	require.Same(t, tx, repos.Riders.(*RiderRepository).q)
	require.Same(t, tx, repos.ServiceRequests.(*ServiceRequestRepository).q)
	require.Same(t, tx, repos.Bookings.(*BookingRepository).q)
	require.Same(t, tx, repos.Reviews.(*ReviewRepository).q)
	require.Same(t, tx, repos.Receipts.(*ReceiptRepository).q)
	require.Same(t, tx, repos.Favorites.(*FavoriteRepository).q)
}
