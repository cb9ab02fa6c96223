package notify

import (
    "context"
    "encoding/json"
    "fmt"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// Channel is the primary pub/sub channel every pipeline event is
// published on.  The fan-out service subscribes here.
const Channel = "notifications"

// SeatTopic returns the per-event channel carrying seat state changes
// for live seating maps.
func SeatTopic(eventID uuid.UUID) string {
    return fmt.Sprintf("events/%s/seats", eventID)
}

// UserTopic returns the per-user channel carrying that user's
// booking outcome events.
func UserTopic(userID uuid.UUID) string {
    return fmt.Sprintf("user/%s/notifications", userID)
}

// RedisEventBus publishes notification events over Redis pub/sub.
// Every event goes to the primary channel; seat transitions are
// additionally mirrored on the per-event seat topic and booking
// outcomes on the per-user topic, so clients can subscribe to exactly
// the slice of state they render.  Publishing is fire-and-forget:
// Redis pub/sub keeps no backlog, which is acceptable because the
// persisted notification row is the durable copy.
type RedisEventBus struct {
    rdb *redis.Client
}

// NewRedisEventBus returns a bus backed by the provided client.  The
// client must be non-nil; callers that run without Redis should not
// construct a bus at all.
func NewRedisEventBus(rdb *redis.Client) *RedisEventBus {
    return &RedisEventBus{rdb: rdb}
}

// Publish marshals the event once and sends it to the primary channel
// plus the matching topic channel.  The first failed PUBLISH aborts;
// callers treat bus errors as non-fatal side effects.
func (b *RedisEventBus) Publish(ctx context.Context, ev NotificationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    if err := b.rdb.Publish(ctx, Channel, body).Err(); err != nil {
        return fmt.Errorf("publish %s: %w", Channel, err)
    }
    switch ev.Type {
    case TypeSeatLocked, TypeSeatAvailable:
        if err := b.rdb.Publish(ctx, SeatTopic(ev.EventID), body).Err(); err != nil {
            return fmt.Errorf("publish seat topic: %w", err)
        }
    case TypeBookingConfirmed, TypeBookingFailed:
        if err := b.rdb.Publish(ctx, UserTopic(ev.UserID), body).Err(); err != nil {
            return fmt.Errorf("publish user topic: %w", err)
        }
    }
    return nil
}

// Subscribe opens a subscription on the primary channel.  The caller
// owns the returned PubSub and must close it.
func (b *RedisEventBus) Subscribe(ctx context.Context) *redis.PubSub {
    return b.rdb.Subscribe(ctx, Channel)
}
