package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bemyrider/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// expectOneRow turns a zero-row update into ErrNotFound.
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NewRepositories builds repositories bound to the connection pool.
func NewRepositories(db *sql.DB) repository.Repositories {
	return repositoriesFor(db)
}

func repositoriesFor(q Querier) repository.Repositories {
	return repository.Repositories{
		Profiles:        NewProfileRepository(q),
		Riders:          NewRiderRepository(q),
		ServiceRequests: NewServiceRequestRepository(q),
		Bookings:        NewBookingRepository(q),
		Reviews:         NewReviewRepository(q),
		Receipts:        NewReceiptRepository(q),
		Favorites:       NewFavoriteRepository(q),
	}
}

// UnitOfWork is a PostgreSQL implementation of repository.UnitOfWork.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithinTx runs fn with repositories scoped to a single transaction.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(repositoriesFor(tx)); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
