package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Providers retry failed webhook deliveries for up to three days.
const dedupTTL = 72 * time.Hour

// EventDeduplicator provides idempotency for billing webhooks.
// Key format: billing:event:<event_id>
type EventDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventDeduplicator creates an EventDeduplicator wrapping the given Redis client.
func NewEventDeduplicator(client *redis.Client) *EventDeduplicator {
	return &EventDeduplicator{client: client, ttl: dedupTTL}
}

// Claim atomically marks eventID as seen and reports whether this call was
// the first to do so.
func (d *EventDeduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(eventID), time.Now().UTC().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

// Release removes the marker so the provider's next retry is accepted.
func (d *EventDeduplicator) Release(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, d.key(eventID)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

func (d *EventDeduplicator) key(eventID string) string {
	return "billing:event:" + eventID
}
