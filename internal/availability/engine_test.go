package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical intervals", "09:00:00", "10:00:00", "09:00:00", "10:00:00", true},
		{"partial overlap at end", "09:00:00", "10:00:00", "09:30:00", "10:30:00", true},
		{"partial overlap at start", "09:30:00", "10:30:00", "09:00:00", "10:00:00", true},
		{"containment", "09:00:00", "12:00:00", "10:00:00", "11:00:00", true},
		{"contained by", "10:00:00", "11:00:00", "09:00:00", "12:00:00", true},
		{"back to back, a first", "09:00:00", "10:00:00", "10:00:00", "11:00:00", false},
		{"back to back, b first", "10:00:00", "11:00:00", "09:00:00", "10:00:00", false},
		{"disjoint", "09:00:00", "10:00:00", "13:00:00", "14:00:00", false},
		{"one minute overlap", "09:00:00", "10:01:00", "10:00:00", "11:00:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			assert.Equal(t, tc.want, got)

			// The predicate is symmetric in the two intervals.
			assert.Equal(t, got, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

// fakeSource serves overlap queries from a fixed set of stored slots.
type fakeSource struct {
	slots []storedSlot
	err   error
}

type storedSlot struct {
	id         uint64
	roomID     uint64
	date       string
	start, end string
}

func (f *fakeSource) RoomOverlapExists(_ context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, s := range f.slots {
		if s.roomID != roomID || s.date != date {
			continue
		}
		if excludeID != 0 && s.id == excludeID {
			continue
		}
		if Overlaps(s.start, s.end, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func TestEngineIsAvailable(t *testing.T) {
	src := &fakeSource{slots: []storedSlot{
		{id: 1, roomID: 7, date: "2026-09-01", start: "09:00:00", end: "10:00:00"},
	}}
	eng := NewEngine(src)
	ctx := context.Background()

	ok, err := eng.IsAvailable(ctx, 7, "2026-09-01", "09:30:00", "10:30:00")
	require.NoError(t, err)
	assert.False(t, ok, "overlapping slot must not be available")

	ok, err = eng.IsAvailable(ctx, 7, "2026-09-01", "10:00:00", "11:00:00")
	require.NoError(t, err)
	assert.True(t, ok, "back-to-back slot must be available")

	// Same slot, different day.
	ok, err = eng.IsAvailable(ctx, 7, "2026-09-02", "09:30:00", "10:30:00")
	require.NoError(t, err)
	assert.True(t, ok)

	// Same slot, different room.
	ok, err = eng.IsAvailable(ctx, 8, "2026-09-01", "09:30:00", "10:30:00")
	require.NoError(t, err)
	assert.True(t, ok)

	// Asking twice changes nothing: the engine holds no state.
	ok1, err1 := eng.IsAvailable(ctx, 7, "2026-09-01", "09:30:00", "10:30:00")
	ok2, err2 := eng.IsAvailable(ctx, 7, "2026-09-01", "09:30:00", "10:30:00")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, ok1, ok2)
}

func TestEngineIsAvailableExcluding(t *testing.T) {
	src := &fakeSource{slots: []storedSlot{
		{id: 42, roomID: 7, date: "2026-09-01", start: "09:00:00", end: "10:00:00"},
	}}
	eng := NewEngine(src)
	ctx := context.Background()

	// The only conflicting booking is the one being re-checked, so the
	// slot counts as free for it.
	ok, err := eng.IsAvailableExcluding(ctx, 7, "2026-09-01", "09:00:00", "10:00:00", 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.IsAvailableExcluding(ctx, 7, "2026-09-01", "09:00:00", "10:00:00", 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineFilterAvailable(t *testing.T) {
	src := &fakeSource{slots: []storedSlot{
		{id: 1, roomID: 2, date: "2026-09-01", start: "09:00:00", end: "12:00:00"},
		{id: 2, roomID: 4, date: "2026-09-01", start: "10:00:00", end: "11:00:00"},
	}}
	eng := NewEngine(src)

	free, err := eng.FilterAvailable(context.Background(), []uint64{5, 4, 3, 2, 1}, "2026-09-01", "10:30:00", "11:30:00")
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 3, 1}, free, "input order must be preserved")
}

func TestEngineFilterAvailablePropagatesError(t *testing.T) {
	src := &fakeSource{err: errors.New("storage down")}
	eng := NewEngine(src)

	_, err := eng.FilterAvailable(context.Background(), []uint64{1, 2}, "2026-09-01", "10:00:00", "11:00:00")
	require.Error(t, err)
}
