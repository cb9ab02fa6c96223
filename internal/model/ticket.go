package model

import (
    "time"

    "github.com/google/uuid"
)

// Ticket is the permanent record of one confirmed seat within a
// booking.  Tickets are written only by the booking worker and are
// immutable once persisted; there is no partial or pending ticket.
// The (BookingID, SeatID) pair is unique so that redelivered booking
// commands cannot create duplicates.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking this ticket belongs to.
//  UserID    – user who owns the ticket.
//  EventID   – event the seat was booked for.
//  SeatID    – seat label within the event (e.g. "A12").
//  Status    – always CONFIRMED; kept as a column for audit parity.
//  CreatedAt – when the ticket was persisted.
type Ticket struct {
    ID        uuid.UUID // tickets.id
    BookingID uuid.UUID // tickets.booking_id
    UserID    uuid.UUID // tickets.user_id
    EventID   uuid.UUID // tickets.event_id
    SeatID    string    // tickets.seat_id
    Status    string    // tickets.status
    CreatedAt time.Time // tickets.created_at
}
