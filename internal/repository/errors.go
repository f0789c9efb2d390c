// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios: for
// example, ErrRoomNotFound maps to an HTTP 404 while ErrRoomExists maps
// to 409.
package repository

import "errors"

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomExists is returned when creating or renaming a room would
// violate the unique name constraint.
var ErrRoomExists = errors.New("room name already exists")

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when registering a user with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned when a refresh token is unknown, revoked or
// expired.  Handlers map it to an HTTP 401.
var ErrTokenInvalid = errors.New("refresh token invalid")
