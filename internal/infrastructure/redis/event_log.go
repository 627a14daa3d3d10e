// Package redis holds the Redis-backed webhook event log. The provider
// delivers events at least once; marking event IDs here lets byte-identical
// redeliveries be skipped cheaply before any store is touched.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix = "webhook:event:"
	eventKeyTTL    = 24 * time.Hour
)

type EventLog struct {
	client *redis.Client
}

func NewEventLog(client *redis.Client) *EventLog {
	return &EventLog{client: client}
}

// MarkProcessed records the event ID and reports whether this delivery is the
// first one. SETNX makes concurrent duplicate deliveries race safely: exactly
// one caller sees true.
func (l *EventLog) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return l.client.SetNX(ctx, eventKeyPrefix+eventID, 1, eventKeyTTL).Result()
}

// Forget drops the processed marker so the provider's redelivery of a failed
// event is not mistaken for a duplicate of a successful one.
func (l *EventLog) Forget(ctx context.Context, eventID string) error {
	return l.client.Del(ctx, eventKeyPrefix+eventID).Err()
}
