package lock

import (
    "fmt"

    "github.com/google/uuid"
)

// SeatUnavailableError reports that a requested seat was already
// locked by someone else.  It names the first conflicting seat so the
// caller can tell the user which part of their selection to change.
// The failure is recoverable: every lock acquired earlier in the same
// call has already been rolled back when this error is returned.
type SeatUnavailableError struct {
    EventID uuid.UUID
    SeatID  string
}

func (e *SeatUnavailableError) Error() string {
    return fmt.Sprintf("seat %s is not available for event %s", e.SeatID, e.EventID)
}
