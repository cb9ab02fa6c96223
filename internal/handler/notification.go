package handler

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/ticketrush/booking/internal/middleware"
    "github.com/ticketrush/booking/internal/model"
    "github.com/ticketrush/booking/internal/notify"
    "github.com/ticketrush/booking/internal/repository"
)

// NotificationStore is the slice of the notification repository the
// inbox endpoints need.  MarkRead must return repository.ErrNotFound
// for a missing row and repository.ErrForbidden for someone else's.
type NotificationStore interface {
    ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
    MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// NotificationHandler exposes the persisted notification inbox and a
// live stream fed by the fan-out hub.
type NotificationHandler struct {
    Repo NotificationStore
    Hub  *notify.Hub
}

// NewNotificationHandler constructs a NotificationHandler.  Both
// dependencies must be non-nil.
func NewNotificationHandler(repo NotificationStore, hub *notify.Hub) *NotificationHandler {
    if repo == nil || hub == nil {
        panic("nil dependency passed to NewNotificationHandler")
    }
    return &NotificationHandler{Repo: repo, Hub: hub}
}

// notificationJSON is the response shape for one notification row.
type notificationJSON struct {
    ID        uuid.UUID `json:"id"`
    Type      string    `json:"type"`
    Message   string    `json:"message"`
    Read      bool      `json:"read"`
    CreatedAt time.Time `json:"created_at"`
}

func toJSON(n model.Notification) notificationJSON {
    return notificationJSON{
        ID:        n.ID,
        Type:      n.Type,
        Message:   n.Message,
        Read:      n.Read,
        CreatedAt: n.CreatedAt,
    }
}

// List handles GET /v1/notifications.  It returns the caller's newest
// notifications, capped by the optional ?limit parameter (default 50).
func (h *NotificationHandler) List(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    limit := 0
    if raw := c.QueryParam("limit"); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            limit = n
        }
    }
    rows, err := h.Repo.ListByUser(c.Request().Context(), userID, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]notificationJSON, 0, len(rows))
    for _, n := range rows {
        out = append(out, toJSON(n))
    }
    return c.JSON(http.StatusOK, echo.Map{"notifications": out})
}

// MarkRead handles POST /v1/notifications/:id/read.  Marking an
// already-read notification succeeds; marking someone else's yields
// 403 and a missing one 404.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
    }
    switch err := h.Repo.MarkRead(c.Request().Context(), id, userID); {
    case err == nil:
        return c.NoContent(http.StatusNoContent)
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}

// Stream handles GET /v1/notifications/stream.  It registers a live
// session on the hub and forwards pushes as server-sent events until
// the client disconnects.  Delivery is best-effort; a client that
// drops the stream recovers by calling List.
func (h *NotificationHandler) Stream(c echo.Context) error {
    userID, err := middleware.CurrentUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ch := h.Hub.Subscribe(userID)
    defer h.Hub.Unsubscribe(userID, ch)

    res := c.Response()
    res.Header().Set(echo.HeaderContentType, "text/event-stream")
    res.Header().Set(echo.HeaderCacheControl, "no-cache")
    res.Header().Set(echo.HeaderConnection, "keep-alive")
    res.WriteHeader(http.StatusOK)
    res.Flush()

    ctx := c.Request().Context()
    keepalive := time.NewTicker(30 * time.Second)
    defer keepalive.Stop()

    for {
        select {
        case <-ctx.Done():
            return nil
        case n, ok := <-ch:
            if !ok {
                return nil
            }
            body, err := json.Marshal(toJSON(n))
            if err != nil {
                continue
            }
            if _, err := fmt.Fprintf(res, "event: notification\ndata: %s\n\n", body); err != nil {
                return nil
            }
            res.Flush()
        case <-keepalive.C:
            // comment line keeps intermediaries from closing the stream
            if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
                return nil
            }
            res.Flush()
        }
    }
}
