package model

// BookingStatus tracks the lifecycle of a booking from intake to its
// terminal state.  A booking starts PENDING when the request is
// accepted, and the booking worker moves it to CONFIRMED or FAILED
// exactly once.  CANCELLED is reserved for explicit user cancellation
// before confirmation.
type BookingStatus string

const (
    BookingPending   BookingStatus = "PENDING"   // accepted, awaiting worker confirmation
    BookingConfirmed BookingStatus = "CONFIRMED" // tickets persisted, locks converted
    BookingFailed    BookingStatus = "FAILED"    // locks expired or persistence failed
    BookingCancelled BookingStatus = "CANCELLED" // cancelled before confirmation
)
