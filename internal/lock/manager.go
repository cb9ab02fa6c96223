package lock

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/notify"
)

// Manager acquires and releases per-seat locks with all-or-nothing
// semantics across a multi-seat request.  The store has no multi-key
// transaction, so atomicity is manufactured by hand: seats are
// attempted in list order, and the first conflict releases everything
// acquired earlier in the same call before the failure is returned.
// Other callers may briefly observe a lock that is about to be rolled
// back; seats under contention fail fast either way.
//
// Every lock transition is published on the notification bus as an
// observable side effect.  Bus failures are logged and ignored: the
// lock state in the store is authoritative, the events are advisory.
type Manager struct {
    store Store
    bus   notify.EventBus
    ttl   time.Duration
}

// NewManager builds a Manager over the given store and bus.  A zero
// ttl falls back to LockTTL; tests pass short values to exercise
// expiry.
func NewManager(store Store, bus notify.EventBus, ttl time.Duration) *Manager {
    if ttl <= 0 {
        ttl = LockTTL
    }
    return &Manager{store: store, bus: bus, ttl: ttl}
}

// AcquireSeats locks every seat in seatIDs for userID, or none of
// them.  On conflict it returns *SeatUnavailableError naming the
// conflicting seat after rolling back the locks acquired earlier in
// this call.  A store error mid-request triggers the same rollback.
func (m *Manager) AcquireSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error {
    holder := HolderValue(userID)
    acquired := make([]string, 0, len(seatIDs))

    for _, seatID := range seatIDs {
        ok, err := m.store.Acquire(ctx, Key(eventID, seatID), holder, m.ttl)
        if err != nil {
            m.rollback(ctx, eventID, acquired, userID)
            return fmt.Errorf("acquire lock for seat %s: %w", seatID, err)
        }
        if !ok {
            log.Printf("seat-lock: seat %s on event %s already locked, rolling back %d lock(s) for user %s",
                seatID, eventID, len(acquired), userID)
            m.rollback(ctx, eventID, acquired, userID)
            return &SeatUnavailableError{EventID: eventID, SeatID: seatID}
        }
        acquired = append(acquired, seatID)
        m.publish(ctx, notify.NewSeatLocked(eventID, seatID, userID))
    }

    log.Printf("seat-lock: locked %d seat(s) on event %s for user %s", len(acquired), eventID, userID)
    return nil
}

// ReleaseSeats releases the caller's locks on the given seats.  The
// release is owner-checked in the store, so a lock that expired and
// was re-acquired by another user is left untouched.  Seats the caller
// no longer holds are skipped silently; a SEAT_AVAILABLE event is
// published only for locks actually deleted.
func (m *Manager) ReleaseSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error {
    holder := HolderValue(userID)
    for _, seatID := range seatIDs {
        deleted, err := m.store.Release(ctx, Key(eventID, seatID), holder)
        if err != nil {
            return fmt.Errorf("release lock for seat %s: %w", seatID, err)
        }
        if deleted {
            m.publish(ctx, notify.NewSeatAvailable(eventID, seatID, userID))
        }
    }
    return nil
}

// ConsumeSeats deletes the caller's locks after their seats turned
// into permanent tickets.  Unlike ReleaseSeats it publishes no
// SEAT_AVAILABLE events: a consumed seat is sold, not up for grabs
// again, so the lock disappears silently.  The deletes are still
// owner-checked; a lock that expired and was re-acquired by another
// user is left untouched.
func (m *Manager) ConsumeSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error {
    holder := HolderValue(userID)
    for _, seatID := range seatIDs {
        if _, err := m.store.Release(ctx, Key(eventID, seatID), holder); err != nil {
            return fmt.Errorf("consume lock for seat %s: %w", seatID, err)
        }
    }
    return nil
}

// IsLocked reports whether any user currently holds the seat.  The
// booking worker uses this to re-verify a command's locks before
// persisting tickets.
func (m *Manager) IsLocked(ctx context.Context, eventID uuid.UUID, seatID string) (bool, error) {
    return m.store.Exists(ctx, Key(eventID, seatID))
}

// rollback undoes the locks acquired so far within a failed
// AcquireSeats call.  Errors are logged only: the remaining locks
// self-expire, so a failed rollback degrades to a slower release
// rather than a stuck seat.
func (m *Manager) rollback(ctx context.Context, eventID uuid.UUID, acquired []string, userID uuid.UUID) {
    holder := HolderValue(userID)
    for _, seatID := range acquired {
        deleted, err := m.store.Release(ctx, Key(eventID, seatID), holder)
        if err != nil {
            log.Printf("seat-lock: rollback of seat %s on event %s failed: %v", seatID, eventID, err)
            continue
        }
        if deleted {
            m.publish(ctx, notify.NewSeatAvailable(eventID, seatID, userID))
        }
    }
}

func (m *Manager) publish(ctx context.Context, ev notify.NotificationEvent) {
    if m.bus == nil {
        return
    }
    if err := m.bus.Publish(ctx, ev); err != nil {
        log.Printf("seat-lock: publish %s failed: %v", ev.Type, err)
    }
}
