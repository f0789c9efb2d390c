package model

import (
	"errors"
	"time"
)

// Booking records a reservation of a room by a user for a time slot on a
// single calendar day.  The interval [StartTime, EndTime) is half-open: a
// booking ending at 11:00 does not conflict with one starting at 11:00.
//
// Date is stored as "2006-01-02" and the two times as normalized
// "15:04:05" strings.  Both forms compare lexicographically in the same
// order as their chronological order and map directly onto the MySQL DATE
// and TIME column types.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who owns the booking.
//  RoomID    – room being booked.
//  Date      – calendar date of the booking (YYYY-MM-DD).
//  StartTime – inclusive start time of day (HH:MM:SS).
//  EndTime   – exclusive end time of day (HH:MM:SS).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Booking struct {
	ID        uint64    `json:"id"`         // bookings.id
	UserID    uint64    `json:"user_id"`    // bookings.user_id
	RoomID    uint64    `json:"room_id"`    // bookings.room_id
	Date      string    `json:"date"`       // bookings.date
	StartTime string    `json:"start_time"` // bookings.start_time
	EndTime   string    `json:"end_time"`   // bookings.end_time
	CreatedAt time.Time `json:"created_at"` // bookings.created_at
	UpdatedAt time.Time `json:"updated_at"` // bookings.updated_at
}

// ErrBadDate is returned by ParseDate for values not in YYYY-MM-DD form.
var ErrBadDate = errors.New("date must be in YYYY-MM-DD format")

// ErrBadTime is returned by ParseTimeOfDay for values that are not a valid
// time of day.
var ErrBadTime = errors.New("time must be in HH:MM or HH:MM:SS format")

const dateLayout = "2006-01-02"

// ParseDate validates a calendar date string and returns it in canonical
// YYYY-MM-DD form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", ErrBadDate
	}
	return t.Format(dateLayout), nil
}

// ParseTimeOfDay validates a time-of-day string and returns it normalized
// to HH:MM:SS.  Both "09:30" and "09:30:00" are accepted.
func ParseTimeOfDay(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", ErrBadTime
}

// Today returns the given instant's calendar date in canonical form.
// Bookings are validated against it when checking for past dates.
func Today(now time.Time) string {
	return now.UTC().Format(dateLayout)
}
