// Package worker consumes booking commands, re-verifies the seat
// locks they rest on and converts them into durable tickets, or
// publishes a compensating failure when the locks are gone.
package worker

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/model"
    "github.com/ticketrush/booking/internal/notify"
    "github.com/ticketrush/booking/internal/queue"
)

// SeatLocks is the slice of the lock manager the worker needs: lock
// re-verification before persisting, and silent consumption after
// confirmation.  ConsumeSeats must not broadcast availability; a
// confirmed seat is sold, and announcing it as free again would flip
// live seating maps back to selectable.
type SeatLocks interface {
    IsLocked(ctx context.Context, eventID uuid.UUID, seatID string) (bool, error)
    ConsumeSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error
}

// TicketStore is the persistence capability for confirmed tickets.
// InsertBatch must be idempotent with respect to (bookingID, seatID)
// pairs: re-inserting an existing pair is a no-op, not an error.
type TicketStore interface {
    InsertBatch(ctx context.Context, tickets []model.Ticket) error
    ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// Worker turns booking commands into confirmed tickets.  Processing
// is idempotent keyed on the booking ID, so the at-least-once command
// channel can redeliver freely.
type Worker struct {
    locks   SeatLocks
    tickets TicketStore
    bus     notify.EventBus
}

// New wires a Worker.  All dependencies must be non-nil.
func New(locks SeatLocks, tickets TicketStore, bus notify.EventBus) *Worker {
    if locks == nil || tickets == nil || bus == nil {
        panic("nil dependency passed to worker.New")
    }
    return &Worker{locks: locks, tickets: tickets, bus: bus}
}

// ProcessBooking handles one command end to end:
//
//  1. If tickets for this booking already exist, the command is a
//     redelivery of a confirmed booking: republish the confirmation
//     and write nothing.
//  2. Re-verify every seat lock.  Any absent lock (expired, rolled
//     back or never acquired) fails the booking: publish
//     BOOKING_FAILED and stop with no DB writes.
//  3. Persist one CONFIRMED ticket per seat as a single batch.  A
//     persistence failure publishes BOOKING_FAILED and is returned to
//     the consumer so the queue's retry/dead-letter policy applies.
//  4. Consume the seat locks (each lock is now a permanent ticket, so
//     no SEAT_AVAILABLE is broadcast) and publish BOOKING_CONFIRMED.
//
// Exactly one terminal notification is published per attempt.
func (w *Worker) ProcessBooking(ctx context.Context, cmd queue.BookingCommand) error {
    log.Printf("booking-worker: processing booking %s (%d seat(s), fromQueue=%t)",
        cmd.BookingID, len(cmd.SelectedSeats), cmd.FromQueue)

    done, err := w.tickets.ExistsForBooking(ctx, cmd.BookingID)
    if err != nil {
        return fmt.Errorf("check existing tickets for booking %s: %w", cmd.BookingID, err)
    }
    if done {
        log.Printf("booking-worker: booking %s already confirmed, treating as redelivery", cmd.BookingID)
        w.publish(ctx, notify.NewBookingConfirmed(cmd.UserID, cmd.BookingID, cmd.EventID))
        return nil
    }

    allLocked, err := w.verifyLocks(ctx, cmd)
    if err != nil {
        return fmt.Errorf("verify locks for booking %s: %w", cmd.BookingID, err)
    }
    if !allLocked {
        log.Printf("booking-worker: locks expired or invalid for booking %s", cmd.BookingID)
        w.publish(ctx, notify.NewBookingFailed(cmd.UserID, cmd.BookingID, cmd.EventID, "locks expired or invalid"))
        return nil
    }

    if err := w.saveTickets(ctx, cmd); err != nil {
        log.Printf("booking-worker: failed to save tickets for booking %s: %v", cmd.BookingID, err)
        w.publish(ctx, notify.NewBookingFailed(cmd.UserID, cmd.BookingID, cmd.EventID, "database error"))
        return fmt.Errorf("save tickets for booking %s: %w", cmd.BookingID, err)
    }

    // The locks served their purpose; the tickets now own the seats.
    if err := w.locks.ConsumeSeats(ctx, cmd.EventID, cmd.SelectedSeats, cmd.UserID); err != nil {
        // Not fatal: unconsumed locks self-expire.
        log.Printf("booking-worker: consume locks for booking %s failed: %v", cmd.BookingID, err)
    }

    w.publish(ctx, notify.NewBookingConfirmed(cmd.UserID, cmd.BookingID, cmd.EventID))
    log.Printf("booking-worker: booking %s confirmed", cmd.BookingID)
    return nil
}

// verifyLocks reports whether every seat in the command is still
// locked.  The store cannot tell an expired lock from one that never
// existed, so both collapse into the same failure path.
func (w *Worker) verifyLocks(ctx context.Context, cmd queue.BookingCommand) (bool, error) {
    for _, seatID := range cmd.SelectedSeats {
        locked, err := w.locks.IsLocked(ctx, cmd.EventID, seatID)
        if err != nil {
            return false, err
        }
        if !locked {
            return false, nil
        }
    }
    return true, nil
}

func (w *Worker) saveTickets(ctx context.Context, cmd queue.BookingCommand) error {
    now := time.Now().UTC()
    tickets := make([]model.Ticket, 0, len(cmd.SelectedSeats))
    for _, seatID := range cmd.SelectedSeats {
        tickets = append(tickets, model.Ticket{
            ID:        uuid.New(),
            BookingID: cmd.BookingID,
            UserID:    cmd.UserID,
            EventID:   cmd.EventID,
            SeatID:    seatID,
            Status:    string(model.BookingConfirmed),
            CreatedAt: now,
        })
    }
    if err := w.tickets.InsertBatch(ctx, tickets); err != nil {
        return err
    }
    log.Printf("booking-worker: saved %d ticket(s) for booking %s", len(tickets), cmd.BookingID)
    return nil
}

func (w *Worker) publish(ctx context.Context, ev notify.NotificationEvent) {
    if err := w.bus.Publish(ctx, ev); err != nil {
        log.Printf("booking-worker: publish %s failed: %v", ev.Type, err)
    }
}
