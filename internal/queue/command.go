// Package queue defines the booking command channel: an ordered,
// durable point-to-point queue carrying booking-processing commands
// from the request-accepting service to the booking worker.
package queue

import (
    "context"

    "github.com/google/uuid"
)

// CommandQueueName is the durable queue booking commands travel on.
const CommandQueueName = "booking.process"

// BookingCommand asks the worker to turn a set of seat locks into a
// confirmed booking.  It is created exactly once by the request path
// and consumed by the worker; delivery is at-least-once, so the
// worker processes it idempotently keyed on BookingID.
//
// FromQueue distinguishes requests that skipped synchronous locking
// (queued intake for high-contention events) from direct requests
// whose locks were acquired before the command was published.
type BookingCommand struct {
    BookingID     uuid.UUID `json:"bookingId"`
    UserID        uuid.UUID `json:"userId"`
    EventID       uuid.UUID `json:"eventId"`
    SelectedSeats []string  `json:"selectedSeats"`
    FromQueue     bool      `json:"fromQueue"`
}

// CommandChannel is the capability the intake layer publishes booking
// commands through.  Implementations must preserve rough per-producer
// FIFO order and survive broker restarts (durable, persistent
// messages).
type CommandChannel interface {
    PublishBookingCommand(ctx context.Context, cmd BookingCommand) error
}
