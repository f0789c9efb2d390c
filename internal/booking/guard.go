// Package booking implements the write-path invariant enforcer for
// bookings.  Every create or update flows through the Guard, which checks
// the booking's date and interval, then both conflict dimensions (room and
// user), and only persists when all checks pass.  Validation and
// persistence run inside a single atomic storage envelope so concurrent
// requests cannot both validate against a stale snapshot and commit
// overlapping bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/meeting-room-booking/internal/model"
)

// LockKey names a mutual-exclusion key held for the duration of a
// validate-and-persist sequence.  One key exists per (room, date) and per
// (user, date).
type LockKey string

// RoomLockKey returns the exclusion key for a room on a date.
func RoomLockKey(roomID uint64, date string) LockKey {
	return LockKey(fmt.Sprintf("booking:room:%d:%s", roomID, date))
}

// UserLockKey returns the exclusion key for a user on a date.
func UserLockKey(userID uint64, date string) LockKey {
	return LockKey(fmt.Sprintf("booking:user:%d:%s", userID, date))
}

// Tx is the transactional query and write surface the guard validates and
// persists through.  All methods observe the same storage snapshot and
// become durable together when the surrounding Atomic call commits.
// excludeID removes one booking from an overlap scan and is ignored when
// zero.
type Tx interface {
	RoomOverlapExists(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error)
	UserOverlapExists(ctx context.Context, userID uint64, date, start, end string, excludeID uint64) (bool, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
}

// Store provides the atomic envelope for a validate-and-persist sequence.
// Atomic must hold every given lock key for the duration of fn and run fn
// inside a single transaction: if fn returns an error nothing it wrote may
// survive.  Writes racing past validation must surface ErrStorageConflict.
type Store interface {
	Atomic(ctx context.Context, keys []LockKey, fn func(tx Tx) error) error
}

// Guard validates candidate bookings against the stored state and persists
// them when every invariant holds.  The zero time source is time.Now; tests
// inject a fixed clock.
type Guard struct {
	store Store
	now   func() time.Time
}

// NewGuard returns a Guard backed by the given store.
func NewGuard(store Store) *Guard {
	if store == nil {
		panic("nil store passed to NewGuard")
	}
	return &Guard{store: store, now: time.Now}
}

// WithClock overrides the guard's time source.  Intended for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Submit validates the candidate booking and persists it, returning the
// stored booking.  A candidate with ID zero is created; a non-zero ID
// updates the existing booking, which is excluded from both overlap scans
// so it cannot conflict with itself.
//
// Checks run in order and the first violation wins: past date, inverted
// interval, room conflict, user conflict.  All checks and the write happen
// inside one atomic transaction holding the (room, date) and (user, date)
// exclusion keys, so two concurrent submissions for the same slot resolve
// to exactly one success and one conflict.
func (g *Guard) Submit(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if b.Date < model.Today(g.now()) {
		return nil, errPastDate()
	}
	if b.EndTime <= b.StartTime {
		return nil, errInvalidInterval()
	}

	keys := []LockKey{
		RoomLockKey(b.RoomID, b.Date),
		UserLockKey(b.UserID, b.Date),
	}
	err := g.store.Atomic(ctx, keys, func(tx Tx) error {
		busy, err := tx.RoomOverlapExists(ctx, b.RoomID, b.Date, b.StartTime, b.EndTime, b.ID)
		if err != nil {
			return err
		}
		if busy {
			return errRoomConflict()
		}
		busy, err = tx.UserOverlapExists(ctx, b.UserID, b.Date, b.StartTime, b.EndTime, b.ID)
		if err != nil {
			return err
		}
		if busy {
			return errUserConflict()
		}
		if b.ID == 0 {
			return tx.InsertBooking(ctx, b)
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		// A constraint violation that raced past validation is still a
		// conflict from the caller's point of view.
		if errors.Is(err, ErrStorageConflict) {
			return nil, errRoomConflict()
		}
		return nil, err
	}
	return b, nil
}
