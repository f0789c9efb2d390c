// Package availability implements the read side of the booking core: the
// interval-overlap predicate and the queries that decide whether a room is
// free for a given date and time slot.  It performs no writes and holds no
// state between calls, so it is safe to invoke repeatedly and concurrently.
package availability

import "context"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.  Times are normalized HH:MM:SS strings, which
// compare lexicographically in chronological order.  Intervals that merely
// touch (one ending exactly when the other starts) do not overlap, which
// permits back-to-back bookings.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// OverlapSource is the storage query surface the engine reads through.  It
// reports whether any stored booking for the room on the date overlaps the
// half-open interval [start, end).  excludeID removes one booking from the
// scan (its own record, when re-checking an update) and is ignored when
// zero.
type OverlapSource interface {
	RoomOverlapExists(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error)
}

// Engine answers room availability questions against current stored state.
type Engine struct {
	src OverlapSource
}

// NewEngine returns an Engine reading from the given source.
func NewEngine(src OverlapSource) *Engine {
	if src == nil {
		panic("nil overlap source passed to NewEngine")
	}
	return &Engine{src: src}
}

// IsAvailable reports whether the room has no booking overlapping
// [start, end) on the given date.  The caller is responsible for ensuring
// start < end; the predicate itself does not validate ordering.
func (e *Engine) IsAvailable(ctx context.Context, roomID uint64, date, start, end string) (bool, error) {
	return e.IsAvailableExcluding(ctx, roomID, date, start, end, 0)
}

// IsAvailableExcluding is IsAvailable with one booking removed from the
// overlap scan.  It is used when re-validating an existing booking so that
// the booking does not conflict with itself.
func (e *Engine) IsAvailableExcluding(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	exists, err := e.src.RoomOverlapExists(ctx, roomID, date, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// FilterAvailable returns the subset of roomIDs that are free for the date
// and interval, preserving the input order.  Each candidate is checked with
// the same predicate used by IsAvailable.
func (e *Engine) FilterAvailable(ctx context.Context, roomIDs []uint64, date, start, end string) ([]uint64, error) {
	free := make([]uint64, 0, len(roomIDs))
	for _, id := range roomIDs {
		ok, err := e.IsAvailable(ctx, id, date, start, end)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, id)
		}
	}
	return free, nil
}
