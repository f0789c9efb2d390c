package booking

import "errors"

// Kind classifies a validation failure.  All kinds are deterministic,
// locally recoverable outcomes; none is fatal to the process.
type Kind string

const (
	// KindInvalidInterval means the end time is not after the start time.
	KindInvalidInterval Kind = "invalid_interval"
	// KindPastDate means the booking date is earlier than the current date.
	KindPastDate Kind = "past_date"
	// KindRoomConflict means another booking for the room overlaps the slot.
	KindRoomConflict Kind = "room_conflict"
	// KindUserConflict means the user already holds an overlapping booking.
	KindUserConflict Kind = "user_conflict"
	// KindNotFound means a referenced room or booking does not exist.
	KindNotFound Kind = "not_found"
)

// Error is a structured, field-tagged validation failure surfaced by the
// guard.  The Field names the request field the failure is attached to so
// the HTTP layer can build a response shaped like
// {"field": "message"} without parsing the message.
type Error struct {
	Kind    Kind   `json:"-"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// ErrStorageConflict is the sentinel stores return when a storage-level
// constraint rejects a write that slipped past validation.  The guard
// re-reports it as a room conflict rather than a raw storage failure.
var ErrStorageConflict = errors.New("storage rejected conflicting booking")

func errPastDate() *Error {
	return &Error{Kind: KindPastDate, Field: "date", Message: "Booking date cannot be in the past."}
}

func errInvalidInterval() *Error {
	return &Error{Kind: KindInvalidInterval, Field: "end_time", Message: "End time must be after start time."}
}

// Room and user conflicts share one generic conflict classification; the
// two remain distinguishable by Kind and message, not by separate HTTP
// codes.
func errRoomConflict() *Error {
	return &Error{Kind: KindRoomConflict, Field: "non_field_errors", Message: "This room is already booked during the requested time slot."}
}

func errUserConflict() *Error {
	return &Error{Kind: KindUserConflict, Field: "non_field_errors", Message: "You already have another booking during this time slot."}
}

// IsConflict reports whether err is a room- or user-conflict validation
// error.  Handlers map these to HTTP 409.
func IsConflict(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindRoomConflict || e.Kind == KindUserConflict
}

// IsValidation reports whether err is any guard validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
