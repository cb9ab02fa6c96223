package model

import (
    "time"

    "github.com/google/uuid"
)

// Notification is the persisted copy of a notification event.  The
// fan-out service writes one row per valid event it receives from the
// bus so that clients who missed the live push can recover the state
// change by polling.  Rows are immutable after creation except for
// the Read flag.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – recipient of the notification.
//  Message   – human-readable text shown to the user.
//  Type      – event kind (e.g. BOOKING_CONFIRMED, SEAT_LOCKED).
//  Read      – whether the user has acknowledged the notification.
//  CreatedAt – when the row was written.
type Notification struct {
    ID        uuid.UUID // notifications.id
    UserID    uuid.UUID // notifications.user_id
    Message   string    // notifications.message
    Type      string    // notifications.type
    Read      bool      // notifications.is_read
    CreatedAt time.Time // notifications.created_at
}
