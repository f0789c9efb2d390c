package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/meeting-room-booking/internal/model"
)

// memStore is an in-memory Store for exercising the guard without a
// database.  Atomic serializes callers with a mutex, which satisfies the
// Store contract in the strongest possible way: one writer at a time.
type memStore struct {
	mu        sync.Mutex
	nextID    uint64
	bookings  map[uint64]model.Booking
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{bookings: map[uint64]model.Booking{}}
}

func (s *memStore) Atomic(_ context.Context, _ []LockKey, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := &memTx{store: s}
	if err := fn(staged); err != nil {
		return err
	}
	for _, b := range staged.writes {
		s.bookings[b.ID] = b
	}
	return nil
}

// memTx stages writes so a failed fn leaves the store untouched.
type memTx struct {
	store  *memStore
	writes []model.Booking
}

func (t *memTx) overlapExists(match func(model.Booking) bool, date, start, end string, excludeID uint64) bool {
	for _, b := range t.store.bookings {
		if !match(b) || b.Date != date {
			continue
		}
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if b.StartTime < end && b.EndTime > start {
			return true
		}
	}
	return false
}

func (t *memTx) RoomOverlapExists(_ context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	return t.overlapExists(func(b model.Booking) bool { return b.RoomID == roomID }, date, start, end, excludeID), nil
}

func (t *memTx) UserOverlapExists(_ context.Context, userID uint64, date, start, end string, excludeID uint64) (bool, error) {
	return t.overlapExists(func(b model.Booking) bool { return b.UserID == userID }, date, start, end, excludeID), nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.nextID++
	b.ID = t.store.nextID
	t.writes = append(t.writes, *b)
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *model.Booking) error {
	t.writes = append(t.writes, *b)
	return nil
}

// fixedClock pins the guard's idea of "now" to 2026-09-01 12:00 UTC.
func fixedClock() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func newTestGuard(store Store) *Guard {
	return NewGuard(store).WithClock(fixedClock)
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var ve *Error
	require.ErrorAs(t, err, &ve)
	return ve.Kind
}

func TestSubmitRejectsPastDate(t *testing.T) {
	g := newTestGuard(newMemStore())

	_, err := g.Submit(context.Background(), &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-08-31", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindPastDate, kindOf(t, err))

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)
	assert.Equal(t, "Booking date cannot be in the past.", ve.Message)
}

func TestSubmitAcceptsToday(t *testing.T) {
	g := newTestGuard(newMemStore())

	saved, err := g.Submit(context.Background(), &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-01", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
}

func TestSubmitRejectsInvalidInterval(t *testing.T) {
	g := newTestGuard(newMemStore())
	ctx := context.Background()

	for _, end := range []string{"09:00:00", "08:00:00"} {
		_, err := g.Submit(ctx, &model.Booking{
			UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: end,
		})
		require.Error(t, err)
		assert.Equal(t, KindInvalidInterval, kindOf(t, err))

		var ve *Error
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "end_time", ve.Field)
	}
}

func TestSubmitPastDateWinsOverInvalidInterval(t *testing.T) {
	g := newTestGuard(newMemStore())

	// Both checks fail; the date check runs first.
	_, err := g.Submit(context.Background(), &model.Booking{
		UserID: 1, RoomID: 1, Date: "2020-01-01", StartTime: "10:00:00", EndTime: "09:00:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindPastDate, kindOf(t, err))
}

func TestSubmitRejectsRoomConflict(t *testing.T) {
	store := newMemStore()
	g := newTestGuard(store)
	ctx := context.Background()

	_, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	// Different user, same room, overlapping slot.
	_, err = g.Submit(ctx, &model.Booking{
		UserID: 2, RoomID: 1, Date: "2026-09-02", StartTime: "09:30:00", EndTime: "10:30:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindRoomConflict, kindOf(t, err))
	assert.True(t, IsConflict(err))

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "non_field_errors", ve.Field)
	assert.Equal(t, "This room is already booked during the requested time slot.", ve.Message)

	assert.Len(t, store.bookings, 1, "rejected booking must not be stored")
}

func TestSubmitRejectsUserConflictAcrossRooms(t *testing.T) {
	g := newTestGuard(newMemStore())
	ctx := context.Background()

	_, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	// Same user, different room, overlapping slot.
	_, err = g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 2, Date: "2026-09-02", StartTime: "09:30:00", EndTime: "10:30:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindUserConflict, kindOf(t, err))
	assert.True(t, IsConflict(err))

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "You already have another booking during this time slot.", ve.Message)
}

func TestSubmitAllowsBackToBack(t *testing.T) {
	g := newTestGuard(newMemStore())
	ctx := context.Background()

	_, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	// Starts exactly when the first ends: no conflict on either dimension.
	_, err = g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "10:00:00", EndTime: "11:00:00",
	})
	require.NoError(t, err)
}

func TestSubmitUpdateExcludesSelf(t *testing.T) {
	store := newMemStore()
	g := newTestGuard(store)
	ctx := context.Background()

	saved, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	// Shifting the same booking by 30 minutes overlaps its own stored slot
	// but must not conflict with itself.
	saved.StartTime = "09:30:00"
	saved.EndTime = "10:30:00"
	updated, err := g.Submit(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "09:30:00", store.bookings[saved.ID].StartTime)
}

func TestSubmitUpdateStillConflictsWithOthers(t *testing.T) {
	g := newTestGuard(newMemStore())
	ctx := context.Background()

	_, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	second, err := g.Submit(ctx, &model.Booking{
		UserID: 2, RoomID: 1, Date: "2026-09-02", StartTime: "10:00:00", EndTime: "11:00:00",
	})
	require.NoError(t, err)

	// Moving the second booking onto the first must still be rejected.
	second.StartTime = "09:30:00"
	second.EndTime = "10:30:00"
	_, err = g.Submit(ctx, second)
	require.Error(t, err)
	assert.Equal(t, KindRoomConflict, kindOf(t, err))
}

func TestSubmitMapsStorageConflict(t *testing.T) {
	store := newMemStore()
	store.insertErr = ErrStorageConflict
	g := newTestGuard(store)

	_, err := g.Submit(context.Background(), &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindRoomConflict, kindOf(t, err))
}

func TestSubmitConcurrentSameSlot(t *testing.T) {
	store := newMemStore()
	g := newTestGuard(store)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Submit(context.Background(), &model.Booking{
				UserID: uint64(i + 1), RoomID: 1,
				Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, KindRoomConflict, kindOf(t, err))
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent submission may win")
	assert.Len(t, store.bookings, 1)
}

func TestSubmitCreateCheckCancelFlow(t *testing.T) {
	store := newMemStore()
	g := newTestGuard(store)
	ctx := context.Background()

	saved, err := g.Submit(ctx, &model.Booking{
		UserID: 1, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)

	// Another user cannot take the slot while the booking exists.
	_, err = g.Submit(ctx, &model.Booking{
		UserID: 2, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.Error(t, err)

	// After cancellation the slot opens up again.
	delete(store.bookings, saved.ID)
	_, err = g.Submit(ctx, &model.Booking{
		UserID: 2, RoomID: 1, Date: "2026-09-02", StartTime: "09:00:00", EndTime: "10:00:00",
	})
	require.NoError(t, err)
}
