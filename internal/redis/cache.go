package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// RiderCacheTTL bounds staleness of public rider cards. Rate changes invalidate explicitly.
const RiderCacheTTL = 5 * time.Minute

const riderCachePrefix = "cache:rider:"

// CachedRider is the public rider card served by GET /v1/riders/:id.
type CachedRider struct {
	ID                 string              `json:"id"`
	FullName           string              `json:"fullName"`
	HourlyRate         decimal.Decimal     `json:"hourlyRate"`
	VehicleType        string              `json:"vehicleType,omitempty"`
	ActiveLocation     string              `json:"activeLocation"`
	Rating             decimal.NullDecimal `json:"rating"`
	CompletedJobs      int                 `json:"completedJobs"`
	IsVerified         bool                `json:"isVerified"`
	IsPremium          bool                `json:"isPremium"`
	OnboardingComplete bool                `json:"onboardingComplete"`
}

// GetRider retrieves a rider card from cache. A miss returns nil, nil.
func (s *CacheStore) GetRider(ctx context.Context, riderID string) (*CachedRider, error) {
	data, err := s.client.Get(ctx, riderCachePrefix+riderID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rider CachedRider
	if err := json.Unmarshal(data, &rider); err != nil {
		return nil, err
	}
	return &rider, nil
}

// SetRider stores a rider card in cache.
func (s *CacheStore) SetRider(ctx context.Context, rider *CachedRider) error {
	data, err := json.Marshal(rider)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, riderCachePrefix+rider.ID, data, RiderCacheTTL).Err()
}

// InvalidateRider removes one or more rider cards from cache.
func (s *CacheStore) InvalidateRider(ctx context.Context, riderIDs ...string) error {
	if len(riderIDs) == 0 {
		return nil
	}
	keys := make([]string, len(riderIDs))
	for i, id := range riderIDs {
		keys[i] = riderCachePrefix + id
	}
	return s.client.Del(ctx, keys...).Err()
}

// GetRidersBatch retrieves several rider cards with one pipeline.
// Returns the hits keyed by id and the ids that missed.
func (s *CacheStore) GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*CachedRider, []string, error) {
	result := make(map[string]*CachedRider, len(riderIDs))
	if len(riderIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(riderIDs))
	for _, id := range riderIDs {
		cmds[id] = pipe.Get(ctx, riderCachePrefix+id)
	}

	// Exec reports redis.Nil when any key is missing; per-command results are checked below.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for _, id := range riderIDs {
		data, err := cmds[id].Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var rider CachedRider
		if err := json.Unmarshal(data, &rider); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &rider
	}

	return result, missing, nil
}
