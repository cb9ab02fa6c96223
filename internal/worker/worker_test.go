package worker_test

import (
    "context"
    "errors"
    "sync"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/ticketrush/booking/internal/model"
    "github.com/ticketrush/booking/internal/notify"
    "github.com/ticketrush/booking/internal/queue"
    "github.com/ticketrush/booking/internal/worker"
)

// fakeLocks reports a fixed set of locked seats and records which
// seats were consumed.
type fakeLocks struct {
    locked   map[string]bool
    consumed [][]string
}

func (f *fakeLocks) IsLocked(_ context.Context, _ uuid.UUID, seatID string) (bool, error) {
    return f.locked[seatID], nil
}

func (f *fakeLocks) ConsumeSeats(_ context.Context, _ uuid.UUID, seatIDs []string, _ uuid.UUID) error {
    f.consumed = append(f.consumed, seatIDs)
    return nil
}

// fakeTickets records inserts and can simulate persistence failures
// and already-confirmed bookings.
type fakeTickets struct {
    inserted  []model.Ticket
    confirmed bool
    insertErr error
}

func (f *fakeTickets) InsertBatch(_ context.Context, tickets []model.Ticket) error {
    if f.insertErr != nil {
        return f.insertErr
    }
    f.inserted = append(f.inserted, tickets...)
    return nil
}

func (f *fakeTickets) ExistsForBooking(_ context.Context, _ uuid.UUID) (bool, error) {
    return f.confirmed, nil
}

type captureBus struct {
    mu     sync.Mutex
    events []notify.NotificationEvent
}

func (b *captureBus) Publish(_ context.Context, ev notify.NotificationEvent) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    b.events = append(b.events, ev)
    return nil
}

func newCommand(seats ...string) queue.BookingCommand {
    return queue.BookingCommand{
        BookingID:     uuid.New(),
        UserID:        uuid.New(),
        EventID:       uuid.New(),
        SelectedSeats: seats,
        FromQueue:     true,
    }
}

func TestProcessBooking_Confirmed(t *testing.T) {
    locks := &fakeLocks{locked: map[string]bool{"A1": true, "A2": true}}
    tickets := &fakeTickets{}
    bus := &captureBus{}
    w := worker.New(locks, tickets, bus)
    cmd := newCommand("A1", "A2")

    require.NoError(t, w.ProcessBooking(context.Background(), cmd))

    // One CONFIRMED ticket per seat.
    require.Len(t, tickets.inserted, 2)
    for i, seat := range cmd.SelectedSeats {
        assert.Equal(t, cmd.BookingID, tickets.inserted[i].BookingID)
        assert.Equal(t, cmd.UserID, tickets.inserted[i].UserID)
        assert.Equal(t, seat, tickets.inserted[i].SeatID)
        assert.Equal(t, string(model.BookingConfirmed), tickets.inserted[i].Status)
    }

    // Exactly one terminal notification, and it is a confirmation.
    // In particular no SEAT_AVAILABLE follows: the seats are sold.
    require.Len(t, bus.events, 1)
    assert.Equal(t, notify.TypeBookingConfirmed, bus.events[0].Type)
    assert.Equal(t, cmd.BookingID, bus.events[0].BookingID)

    // The locks were consumed, not released.
    require.Len(t, locks.consumed, 1)
    assert.Equal(t, cmd.SelectedSeats, locks.consumed[0])
}

func TestProcessBooking_LocksExpired(t *testing.T) {
    // A2's lock is gone: expired, rolled back or never acquired.
    locks := &fakeLocks{locked: map[string]bool{"A1": true}}
    tickets := &fakeTickets{}
    bus := &captureBus{}
    w := worker.New(locks, tickets, bus)
    cmd := newCommand("A1", "A2")

    require.NoError(t, w.ProcessBooking(context.Background(), cmd))

    assert.Empty(t, tickets.inserted, "no tickets may be written when any lock is absent")
    require.Len(t, bus.events, 1)
    assert.Equal(t, notify.TypeBookingFailed, bus.events[0].Type)
    assert.Contains(t, bus.events[0].Message, "locks expired")
    assert.Empty(t, locks.consumed)
}

func TestProcessBooking_PersistenceFailure(t *testing.T) {
    locks := &fakeLocks{locked: map[string]bool{"A1": true}}
    boom := errors.New("connection reset")
    tickets := &fakeTickets{insertErr: boom}
    bus := &captureBus{}
    w := worker.New(locks, tickets, bus)
    cmd := newCommand("A1")

    // The failure is published AND re-raised so the queue's retry
    // policy applies.
    err := w.ProcessBooking(context.Background(), cmd)
    require.ErrorIs(t, err, boom)

    require.Len(t, bus.events, 1)
    assert.Equal(t, notify.TypeBookingFailed, bus.events[0].Type)
    assert.Contains(t, bus.events[0].Message, "database error")
}

func TestProcessBooking_RedeliveryIsIdempotent(t *testing.T) {
    locks := &fakeLocks{locked: map[string]bool{"A1": true}}
    tickets := &fakeTickets{confirmed: true}
    bus := &captureBus{}
    w := worker.New(locks, tickets, bus)
    cmd := newCommand("A1")

    require.NoError(t, w.ProcessBooking(context.Background(), cmd))

    // Redelivery of a confirmed booking writes nothing and only
    // republishes the confirmation.
    assert.Empty(t, tickets.inserted)
    require.Len(t, bus.events, 1)
    assert.Equal(t, notify.TypeBookingConfirmed, bus.events[0].Type)
}
