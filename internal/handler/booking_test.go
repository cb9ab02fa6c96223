package handler_test

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/ticketrush/booking/internal/handler"
    "github.com/ticketrush/booking/internal/lock"
    "github.com/ticketrush/booking/internal/model"
    "github.com/ticketrush/booking/internal/queue"
)

// fakeLocker records acquire/release calls and can simulate a seat
// conflict.
type fakeLocker struct {
    acquired   [][]string
    released   [][]string
    conflictOn string
}

func (f *fakeLocker) AcquireSeats(_ context.Context, eventID uuid.UUID, seatIDs []string, _ uuid.UUID) error {
    for _, s := range seatIDs {
        if s == f.conflictOn {
            return &lock.SeatUnavailableError{EventID: eventID, SeatID: s}
        }
    }
    f.acquired = append(f.acquired, seatIDs)
    return nil
}

func (f *fakeLocker) ReleaseSeats(_ context.Context, _ uuid.UUID, seatIDs []string, _ uuid.UUID) error {
    f.released = append(f.released, seatIDs)
    return nil
}

// fakeTicketReader serves a fixed ticket list.
type fakeTicketReader struct {
    rows []model.Ticket
    err  error
}

func (f *fakeTicketReader) ListByBooking(_ context.Context, _ uuid.UUID) ([]model.Ticket, error) {
    return f.rows, f.err
}

// fakeChannel captures published commands and can fail on demand.
type fakeChannel struct {
    commands []queue.BookingCommand
    err      error
}

func (f *fakeChannel) PublishBookingCommand(_ context.Context, cmd queue.BookingCommand) error {
    if f.err != nil {
        return f.err
    }
    f.commands = append(f.commands, cmd)
    return nil
}

func newBookingContext(t *testing.T, eventID, userID uuid.UUID, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/events/"+eventID.String()+"/bookings", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues(eventID.String())
    c.Set("user_id", userID) // normally stored by the JWT middleware
    return c, rec
}

func TestCreateBooking_DirectModeSuccess(t *testing.T) {
    locker := &fakeLocker{}
    channel := &fakeChannel{}
    h := handler.NewBookingHandler(locker, channel, &fakeTicketReader{})
    eventID, userID := uuid.New(), uuid.New()

    // The duplicate A1 must be collapsed before locking.
    c, rec := newBookingContext(t, eventID, userID, `{"seats":["A1","A2","A1"]}`)
    require.NoError(t, h.CreateBooking(c))

    assert.Equal(t, http.StatusCreated, rec.Code)
    var resp struct {
        BookingID uuid.UUID `json:"booking_id"`
        Status    string    `json:"status"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.NotEqual(t, uuid.Nil, resp.BookingID)
    assert.Equal(t, "PENDING", resp.Status)

    require.Len(t, locker.acquired, 1)
    assert.Equal(t, []string{"A1", "A2"}, locker.acquired[0])

    require.Len(t, channel.commands, 1)
    cmd := channel.commands[0]
    assert.Equal(t, resp.BookingID, cmd.BookingID)
    assert.Equal(t, userID, cmd.UserID)
    assert.Equal(t, eventID, cmd.EventID)
    assert.False(t, cmd.FromQueue)
}

func TestCreateBooking_DirectModeConflict(t *testing.T) {
    locker := &fakeLocker{conflictOn: "A2"}
    channel := &fakeChannel{}
    h := handler.NewBookingHandler(locker, channel, &fakeTicketReader{})

    c, rec := newBookingContext(t, uuid.New(), uuid.New(), `{"seats":["A1","A2"]}`)
    require.NoError(t, h.CreateBooking(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    var resp map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "A2", resp["seat"])
    assert.Empty(t, channel.commands, "no command may be published when locking fails")
}

func TestCreateBooking_QueuedMode(t *testing.T) {
    locker := &fakeLocker{}
    channel := &fakeChannel{}
    h := handler.NewBookingHandler(locker, channel, &fakeTicketReader{})

    c, rec := newBookingContext(t, uuid.New(), uuid.New(), `{"seats":["B1"],"queued":true}`)
    require.NoError(t, h.CreateBooking(c))

    assert.Equal(t, http.StatusAccepted, rec.Code)
    assert.Empty(t, locker.acquired, "queued mode must not lock synchronously")
    require.Len(t, channel.commands, 1)
    assert.True(t, channel.commands[0].FromQueue)
}

func TestCreateBooking_EmptySeats(t *testing.T) {
    h := handler.NewBookingHandler(&fakeLocker{}, &fakeChannel{}, &fakeTicketReader{})

    for _, body := range []string{`{"seats":[]}`, `{"seats":["",""]}`, `{}`} {
        c, rec := newBookingContext(t, uuid.New(), uuid.New(), body)
        require.NoError(t, h.CreateBooking(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
    }
}

func TestCreateBooking_PublishFailureReleasesLocks(t *testing.T) {
    locker := &fakeLocker{}
    channel := &fakeChannel{err: errors.New("broker down")}
    h := handler.NewBookingHandler(locker, channel, &fakeTicketReader{})

    c, rec := newBookingContext(t, uuid.New(), uuid.New(), `{"seats":["C1","C2"]}`)
    require.NoError(t, h.CreateBooking(c))

    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    // The locks acquired for this request were handed back.
    require.Len(t, locker.released, 1)
    assert.Equal(t, []string{"C1", "C2"}, locker.released[0])
}

func newTicketsContext(t *testing.T, bookingID, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/bookings/"+bookingID.String()+"/tickets", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues(bookingID.String())
    c.Set("user_id", userID)
    return c, rec
}

func TestTicketsByBooking_ReturnsOwnTickets(t *testing.T) {
    bookingID, userID, eventID := uuid.New(), uuid.New(), uuid.New()
    tickets := &fakeTicketReader{rows: []model.Ticket{
        {ID: uuid.New(), BookingID: bookingID, UserID: userID, EventID: eventID, SeatID: "A1", Status: "CONFIRMED"},
        {ID: uuid.New(), BookingID: bookingID, UserID: userID, EventID: eventID, SeatID: "A2", Status: "CONFIRMED"},
    }}
    h := handler.NewBookingHandler(&fakeLocker{}, &fakeChannel{}, tickets)

    c, rec := newTicketsContext(t, bookingID, userID)
    require.NoError(t, h.TicketsByBooking(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    var resp struct {
        Tickets []struct {
            SeatID string `json:"seat_id"`
            Status string `json:"status"`
        } `json:"tickets"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    require.Len(t, resp.Tickets, 2)
    assert.Equal(t, "A1", resp.Tickets[0].SeatID)
    assert.Equal(t, "CONFIRMED", resp.Tickets[0].Status)
}

func TestTicketsByBooking_PendingOrUnknownIs404(t *testing.T) {
    h := handler.NewBookingHandler(&fakeLocker{}, &fakeChannel{}, &fakeTicketReader{})

    c, rec := newTicketsContext(t, uuid.New(), uuid.New())
    require.NoError(t, h.TicketsByBooking(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketsByBooking_OtherUsersBookingIs403(t *testing.T) {
    bookingID, owner := uuid.New(), uuid.New()
    tickets := &fakeTicketReader{rows: []model.Ticket{
        {ID: uuid.New(), BookingID: bookingID, UserID: owner, SeatID: "A1", Status: "CONFIRMED"},
    }}
    h := handler.NewBookingHandler(&fakeLocker{}, &fakeChannel{}, tickets)

    c, rec := newTicketsContext(t, bookingID, uuid.New()) // not the owner
    require.NoError(t, h.TicketsByBooking(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateBooking_Unauthenticated(t *testing.T) {
    h := handler.NewBookingHandler(&fakeLocker{}, &fakeChannel{}, &fakeTicketReader{})
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/events/x/bookings", strings.NewReader(`{"seats":["A1"]}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, h.CreateBooking(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
