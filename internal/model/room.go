package model

import "time"

// Room represents a meeting room in the office.  Rooms are identified by a
// unique name; capacity and floor must both be positive.  Rooms do not own
// their bookings: a room is referenced by zero or more bookings and may be
// deleted only by administrators.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique room name.
//  Capacity  – number of seats (>= 1).
//  Floor     – floor the room is located on (>= 1).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    `json:"id"`         // rooms.id
	Name      string    `json:"name"`       // rooms.name
	Capacity  uint32    `json:"capacity"`   // rooms.capacity
	Floor     uint32    `json:"floor"`      // rooms.floor
	CreatedAt time.Time `json:"created_at"` // rooms.created_at
	UpdatedAt time.Time `json:"updated_at"` // rooms.updated_at
}
