package notify

import (
    "sync"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/model"
)

// sessionBuffer is how many undelivered notifications a single live
// session may lag behind before pushes to it are dropped.
const sessionBuffer = 16

// Hub tracks live client sessions per user and pushes persisted
// notifications to them.  Delivery is strictly best-effort: a slow or
// disconnected session misses the push and recovers by polling the
// persisted notification rows.  All methods are safe for concurrent
// use.
type Hub struct {
    mu       sync.RWMutex
    sessions map[uuid.UUID]map[chan model.Notification]struct{}
}

// NewHub returns an empty session hub.
func NewHub() *Hub {
    return &Hub{sessions: make(map[uuid.UUID]map[chan model.Notification]struct{})}
}

// Subscribe registers a new live session for the user and returns the
// channel it receives pushes on.  The caller must Unsubscribe when the
// session ends; the hub never closes the channel while it is
// registered.
func (h *Hub) Subscribe(userID uuid.UUID) chan model.Notification {
    ch := make(chan model.Notification, sessionBuffer)
    h.mu.Lock()
    defer h.mu.Unlock()
    if h.sessions[userID] == nil {
        h.sessions[userID] = make(map[chan model.Notification]struct{})
    }
    h.sessions[userID][ch] = struct{}{}
    return ch
}

// Unsubscribe removes a session previously returned by Subscribe and
// closes its channel.  Unsubscribing an unknown channel is a no-op.
func (h *Hub) Unsubscribe(userID uuid.UUID, ch chan model.Notification) {
    h.mu.Lock()
    defer h.mu.Unlock()
    set, ok := h.sessions[userID]
    if !ok {
        return
    }
    if _, ok := set[ch]; !ok {
        return
    }
    delete(set, ch)
    if len(set) == 0 {
        delete(h.sessions, userID)
    }
    close(ch)
}

// Push delivers a notification to every live session of its user.
// Sessions whose buffer is full are skipped rather than blocked on;
// the persisted row is the authoritative copy.  It returns the number
// of sessions the notification was delivered to.
func (h *Hub) Push(n model.Notification) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    delivered := 0
    for ch := range h.sessions[n.UserID] {
        select {
        case ch <- n:
            delivered++
        default:
            // session is lagging; drop and let polling catch it up
        }
    }
    return delivered
}
