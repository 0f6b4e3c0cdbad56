package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireEventLock claims a processor event for the delivery applying it.
// Returns false if another delivery holds the claim or already applied the event.
func (s *LockStore) AcquireEventLock(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "webhook:event:"+eventID, "1", ttl).Result()
}

// ExtendEventLock keeps an applied event marked for ttl, even if its claim already lapsed.
func (s *LockStore) ExtendEventLock(ctx context.Context, eventID string, ttl time.Duration) error {
	return s.client.Set(ctx, "webhook:event:"+eventID, "1", ttl).Err()
}

// ReleaseEventLock lets a later delivery of the event be applied again.
func (s *LockStore) ReleaseEventLock(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, "webhook:event:"+eventID).Err()
}

// AcquireCheckoutLock serializes checkout attempts for one service request.
func (s *LockStore) AcquireCheckoutLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "lock:checkout:"+requestID, "1", ttl).Result()
}

// ReleaseCheckoutLock releases the checkout lock for a service request.
func (s *LockStore) ReleaseCheckoutLock(ctx context.Context, requestID string) error {
	return s.client.Del(ctx, "lock:checkout:"+requestID).Err()
}
