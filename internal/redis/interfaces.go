package redis

import (
	"context"
	"time"
)

// RiderCacheInterface defines the interface for rider card caching.
type RiderCacheInterface interface {
	GetRider(ctx context.Context, riderID string) (*CachedRider, error)
	SetRider(ctx context.Context, rider *CachedRider) error
	InvalidateRider(ctx context.Context, riderIDs ...string) error
	GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*CachedRider, []string, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireEventLock(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ExtendEventLock(ctx context.Context, eventID string, ttl time.Duration) error
	ReleaseEventLock(ctx context.Context, eventID string) error
	AcquireCheckoutLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, requestID string) error
}

// OrphanLedgerInterface defines the interface for the orphaned payment intent ledger.
type OrphanLedgerInterface interface {
	Record(ctx context.Context, orphan *OrphanedIntent) error
	Get(ctx context.Context, paymentIntentID string) (*OrphanedIntent, error)
	List(ctx context.Context) ([]*OrphanedIntent, error)
	Remove(ctx context.Context, paymentIntentID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RiderCacheInterface   = (*CacheStore)(nil)
	_ LockStoreInterface    = (*LockStore)(nil)
	_ OrphanLedgerInterface = (*OrphanLedger)(nil)
)
