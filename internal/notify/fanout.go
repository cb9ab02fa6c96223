package notify

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/model"
)

// NotificationStore is the persistence capability the fan-out service
// writes notification rows through.
type NotificationStore interface {
    Insert(ctx context.Context, n model.Notification) error
}

// Fanout subscribes to the notification bus, persists each terminal
// booking event as a Notification row and pushes the row to any live
// session of the target user.  Seat transitions are not inbox
// material: they already reach live seating maps through the
// per-event seat topic, so persisting them would flood a multi-seat
// booking's inbox with one row per lock.  Malformed payloads are
// logged and dropped so a bad producer can never crash the
// subscriber.
type Fanout struct {
    bus   *RedisEventBus
    store NotificationStore
    hub   *Hub
}

// NewFanout wires the fan-out service.  All dependencies must be
// non-nil.
func NewFanout(bus *RedisEventBus, store NotificationStore, hub *Hub) *Fanout {
    return &Fanout{bus: bus, store: store, hub: hub}
}

// Run subscribes to the primary bus channel and processes messages
// until the context is cancelled.  Processing errors are logged and
// never end the loop.
func (f *Fanout) Run(ctx context.Context) {
    sub := f.bus.Subscribe(ctx)
    defer func() { _ = sub.Close() }()

    log.Printf("notification-fanout: subscribed to %s", Channel)
    ch := sub.Channel()
    for {
        select {
        case <-ctx.Done():
            log.Printf("notification-fanout: stopping: %v", ctx.Err())
            return
        case msg, ok := <-ch:
            if !ok {
                log.Printf("notification-fanout: subscription channel closed")
                return
            }
            f.handle(ctx, []byte(msg.Payload))
        }
    }
}

// handle processes one raw bus payload.  Validation failures drop the
// message; only the persistence write is treated as an error worth
// logging with its cause.
func (f *Fanout) handle(ctx context.Context, payload []byte) {
    var ev NotificationEvent
    if err := json.Unmarshal(payload, &ev); err != nil {
        log.Printf("notification-fanout: dropping malformed payload: %v", err)
        return
    }
    // Only terminal booking outcomes become inbox rows.
    if ev.Type != TypeBookingConfirmed && ev.Type != TypeBookingFailed {
        return
    }
    // The envelope must target a user and carry a message; anything
    // else cannot be persisted or routed.
    if ev.UserID == uuid.Nil || ev.Message == "" {
        log.Printf("notification-fanout: dropping event with missing userId or message (type=%q)", ev.Type)
        return
    }

    n := model.Notification{
        ID:        uuid.New(),
        UserID:    ev.UserID,
        Message:   ev.Message,
        Type:      ev.Type,
        Read:      false,
        CreatedAt: time.Now().UTC(),
    }
    if err := f.store.Insert(ctx, n); err != nil {
        log.Printf("notification-fanout: persist notification for user %s failed: %v", ev.UserID, err)
        return
    }

    if delivered := f.hub.Push(n); delivered > 0 {
        log.Printf("notification-fanout: pushed %s to %d session(s) of user %s", ev.Type, delivered, ev.UserID)
    }
}
