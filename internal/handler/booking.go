package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/ticketrush/booking/internal/lock"
    "github.com/ticketrush/booking/internal/middleware"
    "github.com/ticketrush/booking/internal/model"
    "github.com/ticketrush/booking/internal/queue"
)

// SeatLocker is the slice of the lock manager the intake needs.
type SeatLocker interface {
    AcquireSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error
    ReleaseSeats(ctx context.Context, eventID uuid.UUID, seatIDs []string, userID uuid.UUID) error
}

// TicketReader is the read-only slice of the ticket repository the
// intake surface needs for the polling fallback.
type TicketReader interface {
    ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Ticket, error)
}

// BookingHandler accepts booking requests and turns them into seat
// locks plus a booking command.  It never writes tickets itself; the
// worker owns all persistence, so both intake modes converge on the
// command channel.
type BookingHandler struct {
    Locks   SeatLocker
    Channel queue.CommandChannel
    Tickets TicketReader
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(locks SeatLocker, channel queue.CommandChannel, tickets TicketReader) *BookingHandler {
    if locks == nil || channel == nil || tickets == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Locks: locks, Channel: channel, Tickets: tickets}
}

// CreateBooking handles POST /v1/events/:id/bookings.  The body must
// contain a non-empty "seats" array; seat labels are deduplicated.
//
// Direct mode (default) locks the seats synchronously and answers 201
// with a PENDING booking, or 409 naming the first conflicting seat.
// Queued mode ("queued": true) skips synchronous locking and answers
// 202 immediately; the worker will attempt the whole booking later.
// Both modes publish a booking command carrying a freshly generated
// booking ID.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }

    var body struct {
        Seats  []string `json:"seats"`
        Queued bool     `json:"queued"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    seats := dedupeSeats(body.Seats)
    if len(seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }

    ctx := c.Request().Context()
    bookingID := uuid.New()
    cmd := queue.BookingCommand{
        BookingID:     bookingID,
        UserID:        userID,
        EventID:       eventID,
        SelectedSeats: seats,
        FromQueue:     body.Queued,
    }

    if body.Queued {
        // Queued mode absorbs burst demand: no lock attempt here, the
        // worker races for the seats when the command surfaces.
        if err := h.Channel.PublishBookingCommand(ctx, cmd); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking queue unavailable"})
        }
        return c.JSON(http.StatusAccepted, echo.Map{
            "booking_id": bookingID,
            "status":     "ACCEPTED",
        })
    }

    // Direct mode: reserve first so the caller gets the fail-fast
    // "seat is taken" signal before anything is queued.
    if err := h.Locks.AcquireSeats(ctx, eventID, seats, userID); err != nil {
        var unavailable *lock.SeatUnavailableError
        if errors.As(err, &unavailable) {
            return c.JSON(http.StatusConflict, echo.Map{
                "error": "seat is not available",
                "seat":  unavailable.SeatID,
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock seats"})
    }

    if err := h.Channel.PublishBookingCommand(ctx, cmd); err != nil {
        // Without a command the worker can never confirm; hand the
        // seats back instead of letting them sit until expiry.
        _ = h.Locks.ReleaseSeats(ctx, eventID, seats, userID)
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking queue unavailable"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id": bookingID,
        "status":     string(model.BookingPending),
    })
}

// ReleaseSeats handles DELETE /v1/events/:id/seats.  It releases the
// caller's locks on the listed seats; locks held by other users are
// left untouched by the owner check in the store.  The endpoint is
// idempotent and answers 204 even when nothing was held.
func (h *BookingHandler) ReleaseSeats(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var body struct {
        Seats []string `json:"seats"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    seats := dedupeSeats(body.Seats)
    if len(seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }
    if err := h.Locks.ReleaseSeats(c.Request().Context(), eventID, seats, userID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
    }
    return c.NoContent(http.StatusNoContent)
}

// TicketsByBooking handles GET /v1/bookings/:id/tickets, the polling
// fallback for clients that missed the push.  A booking with no
// tickets yet is either still pending or failed; the notification
// record carries the terminal answer, so this endpoint reports 404
// until tickets exist.
func (h *BookingHandler) TicketsByBooking(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    tickets, err := h.Tickets.ListByBooking(c.Request().Context(), bookingID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if len(tickets) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no tickets for this booking"})
    }
    if tickets[0].UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    out := make([]echo.Map, 0, len(tickets))
    for _, t := range tickets {
        out = append(out, echo.Map{
            "ticket_id":  t.ID,
            "booking_id": t.BookingID,
            "event_id":   t.EventID,
            "seat_id":    t.SeatID,
            "status":     t.Status,
            "created_at": t.CreatedAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// dedupeSeats drops empty labels and duplicates while preserving the
// caller's order; lock acquisition is order-sensitive.
func dedupeSeats(seats []string) []string {
    unique := make([]string, 0, len(seats))
    seen := make(map[string]struct{}, len(seats))
    for _, s := range seats {
        if s == "" {
            continue
        }
        if _, ok := seen[s]; ok {
            continue
        }
        seen[s] = struct{}{}
        unique = append(unique, s)
    }
    return unique
}
