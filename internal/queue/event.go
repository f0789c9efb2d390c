// Package queue defines message payloads exchanged over the message broker.
package queue

// Actions carried by BookingEvent.
const (
	ActionCreated   = "created"
	ActionCancelled = "cancelled"
)

// BookingEvent is published when a booking is created or cancelled.  It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type BookingEvent struct {
	Action     string `json:"action"`
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	RoomID     uint64 `json:"room_id"`
	RoomName   string `json:"room_name,omitempty"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	OccurredAt string `json:"occurred_at"`
}
