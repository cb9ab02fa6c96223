// Package notify carries booking and seat state changes from the
// pipeline to every interested subscriber.  It defines the event
// envelope published on the notification bus, the Redis-backed bus
// itself, the fan-out service that persists and pushes events, and
// the in-process session hub used for live client pushes.
package notify

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
)

// Event kinds published on the notification bus.
const (
    TypeSeatLocked       = "SEAT_LOCKED"       // a seat lock was acquired
    TypeSeatAvailable    = "SEAT_AVAILABLE"    // a seat lock was released
    TypeBookingConfirmed = "BOOKING_CONFIRMED" // tickets persisted for a booking
    TypeBookingFailed    = "BOOKING_FAILED"    // booking processing failed
)

// NotificationEvent is the wire envelope for a single state change.
// It is published once and never updated; the fan-out service turns
// valid envelopes into persisted Notification rows.  SeatID is only
// set for seat lock transitions and is omitted from booking outcomes.
type NotificationEvent struct {
    Type      string    `json:"type"`
    UserID    uuid.UUID `json:"userId"`
    BookingID uuid.UUID `json:"bookingId"`
    EventID   uuid.UUID `json:"eventId"`
    SeatID    string    `json:"seatId,omitempty"`
    Message   string    `json:"message"`
    Timestamp int64     `json:"timestamp"`
}

// EventBus is the capability used by producers to broadcast a state
// change.  Implementations must be safe for concurrent use; delivery
// to subscribers is fan-out, best-effort and unordered across
// producers.
type EventBus interface {
    Publish(ctx context.Context, ev NotificationEvent) error
}

// NewSeatLocked builds the event published after a seat lock is
// acquired for a user.
func NewSeatLocked(eventID uuid.UUID, seatID string, userID uuid.UUID) NotificationEvent {
    return NotificationEvent{
        Type:      TypeSeatLocked,
        UserID:    userID,
        EventID:   eventID,
        SeatID:    seatID,
        Message:   fmt.Sprintf("Seat %s is reserved for you", seatID),
        Timestamp: time.Now().UnixMilli(),
    }
}

// NewSeatAvailable builds the event published after a seat lock is
// released, either explicitly or by rollback.  UserID identifies the
// previous holder so subscribers can correlate the release.
func NewSeatAvailable(eventID uuid.UUID, seatID string, userID uuid.UUID) NotificationEvent {
    return NotificationEvent{
        Type:      TypeSeatAvailable,
        UserID:    userID,
        EventID:   eventID,
        SeatID:    seatID,
        Message:   fmt.Sprintf("Seat %s is available again", seatID),
        Timestamp: time.Now().UnixMilli(),
    }
}

// NewBookingConfirmed builds the terminal success event for a booking.
func NewBookingConfirmed(userID, bookingID, eventID uuid.UUID) NotificationEvent {
    return NotificationEvent{
        Type:      TypeBookingConfirmed,
        UserID:    userID,
        BookingID: bookingID,
        EventID:   eventID,
        Message:   "Your booking has been confirmed!",
        Timestamp: time.Now().UnixMilli(),
    }
}

// NewBookingFailed builds the terminal failure event for a booking.
// The reason is embedded in the human-readable message; the pipeline
// publishes exactly one terminal event per processing attempt.
func NewBookingFailed(userID, bookingID, eventID uuid.UUID, reason string) NotificationEvent {
    return NotificationEvent{
        Type:      TypeBookingFailed,
        UserID:    userID,
        BookingID: bookingID,
        EventID:   eventID,
        Message:   "Booking failed: " + reason,
        Timestamp: time.Now().UnixMilli(),
    }
}
