// Package lock implements the seat reservation primitive: short-lived,
// fail-fast exclusive claims on (event, seat) pairs backed by a shared
// key-value store with atomic insert-if-absent semantics.  Correctness
// under concurrent acquisition rests entirely on the store's atomic
// primitives; no in-process mutex is held across seats or requests.
package lock

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
)

// LockTTL is the reservation window: a lock that is neither confirmed
// nor released self-expires after this duration.  Expiry is the
// designed recovery path for abandoned checkouts, not an error.
const LockTTL = 600 * time.Second

// Store is the capability interface over the shared lock store.  It is
// injected rather than ambient so tests can substitute an in-memory
// fake and so the manager never depends on a concrete client.
type Store interface {
    // Acquire atomically creates key=holder with the given TTL if the
    // key is absent.  It reports false without error when the key
    // already exists.
    Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)

    // Exists reports whether the key currently exists (i.e. the seat
    // is locked by someone).
    Exists(ctx context.Context, key string) (bool, error)

    // Release deletes the key only if its current value equals holder,
    // as a single atomic compare-and-delete.  It reports whether a key
    // was deleted.  An absent key or a different holder both report
    // false without error.
    Release(ctx context.Context, key, holder string) (bool, error)
}

// Key builds the store key for one seat of one event.
func Key(eventID uuid.UUID, seatID string) string {
    return fmt.Sprintf("seat_lock:%s:%s", eventID, seatID)
}

// HolderValue is the value stored under a lock key, identifying which
// user holds the claim.
func HolderValue(userID uuid.UUID) string {
    return "locked_by_" + userID.String()
}
