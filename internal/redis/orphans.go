package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const orphanLedgerKey = "orphans:payment_intents"

// ErrOrphanNotFound is returned when the ledger holds no entry for an intent.
var ErrOrphanNotFound = errors.New("orphaned intent not found")

// OrphanedIntent is a payment intent created upstream whose booking row was never written.
type OrphanedIntent struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	RiderID         string          `json:"rider_id"`
	MerchantID      string          `json:"merchant_id"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	Hours           decimal.Decimal `json:"hours"`
	RiderAmount     decimal.Decimal `json:"rider_amount"`
	Cause           string          `json:"cause"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

// OrphanLedger keeps orphaned intents in a single Redis hash keyed by intent id.
type OrphanLedger struct {
	client *redis.Client
}

// NewOrphanLedger creates a new OrphanLedger.
func NewOrphanLedger(client *redis.Client) *OrphanLedger {
	return &OrphanLedger{client: client}
}

// Record stores an orphan. Re-recording the same intent overwrites it.
func (l *OrphanLedger) Record(ctx context.Context, orphan *OrphanedIntent) error {
	data, err := json.Marshal(orphan)
	if err != nil {
		return err
	}
	return l.client.HSet(ctx, orphanLedgerKey, orphan.PaymentIntentID, data).Err()
}

// Get returns one orphan by payment intent id.
func (l *OrphanLedger) Get(ctx context.Context, paymentIntentID string) (*OrphanedIntent, error) {
	data, err := l.client.HGet(ctx, orphanLedgerKey, paymentIntentID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOrphanNotFound
		}
		return nil, err
	}

	var orphan OrphanedIntent
	if err := json.Unmarshal(data, &orphan); err != nil {
		return nil, fmt.Errorf("decode orphan %s: %w", paymentIntentID, err)
	}
	return &orphan, nil
}

// List returns every orphan, oldest first.
func (l *OrphanLedger) List(ctx context.Context) ([]*OrphanedIntent, error) {
	entries, err := l.client.HGetAll(ctx, orphanLedgerKey).Result()
	if err != nil {
		return nil, err
	}

	orphans := make([]*OrphanedIntent, 0, len(entries))
	for id, raw := range entries {
		var orphan OrphanedIntent
		if err := json.Unmarshal([]byte(raw), &orphan); err != nil {
			return nil, fmt.Errorf("decode orphan %s: %w", id, err)
		}
		orphans = append(orphans, &orphan)
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].RecordedAt.Before(orphans[j].RecordedAt)
	})
	return orphans, nil
}

// Remove deletes an orphan once it has been reconciled.
func (l *OrphanLedger) Remove(ctx context.Context, paymentIntentID string) error {
	return l.client.HDel(ctx, orphanLedgerKey, paymentIntentID).Err()
}
