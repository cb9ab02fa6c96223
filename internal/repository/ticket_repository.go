package repository

import (
    "context"
    "database/sql"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/model"
)

// TicketRepo provides data access to the tickets table.  Tickets are
// written only by the booking worker and never updated.  The table
// carries a UNIQUE KEY on (booking_id, seat_id); combined with
// INSERT IGNORE this makes batch writes idempotent, so a redelivered
// booking command can re-run its insert without creating duplicates.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// InsertBatch persists the given tickets in a single multi-row
// INSERT IGNORE statement.  Rows whose (booking_id, seat_id) pair
// already exists are silently skipped by the unique key, which is the
// idempotency guarantee the worker relies on.  Passing an empty slice
// has no effect and returns nil.
func (r *TicketRepo) InsertBatch(ctx context.Context, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    query := `INSERT IGNORE INTO tickets (id, booking_id, user_id, event_id, seat_id, status, created_at) VALUES `
    args := make([]interface{}, 0, len(tickets)*7)
    for i, t := range tickets {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args,
            t.ID.String(), t.BookingID.String(), t.UserID.String(), t.EventID.String(),
            t.SeatID, t.Status, t.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// ExistsForBooking reports whether any ticket has been persisted for
// the given booking.  The worker uses this to short-circuit
// redelivered commands for bookings that already confirmed.
func (r *TicketRepo) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM tickets WHERE booking_id = ? LIMIT 1`,
        bookingID.String(),
    ).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// ListByBooking returns all tickets of one booking ordered by seat
// label.  Callers are responsible for checking that the requesting
// user owns the booking before exposing the rows.
func (r *TicketRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, booking_id, user_id, event_id, seat_id, status, created_at
         FROM tickets WHERE booking_id = ? ORDER BY seat_id`,
        bookingID.String(),
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var tickets []model.Ticket
    for rows.Next() {
        var (
            t                       model.Ticket
            id, booking, user, evID string
        )
        if err := rows.Scan(&id, &booking, &user, &evID, &t.SeatID, &t.Status, &t.CreatedAt); err != nil {
            return nil, err
        }
        if t.ID, err = uuid.Parse(id); err != nil {
            return nil, err
        }
        if t.BookingID, err = uuid.Parse(booking); err != nil {
            return nil, err
        }
        if t.UserID, err = uuid.Parse(user); err != nil {
            return nil, err
        }
        if t.EventID, err = uuid.Parse(evID); err != nil {
            return nil, err
        }
        tickets = append(tickets, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return tickets, nil
}
