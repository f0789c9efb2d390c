package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/meeting-room-booking/internal/booking"
	"github.com/iliyamo/meeting-room-booking/internal/model"
)

// lockWaitSeconds bounds how long a session waits on a named lock before
// the submission fails.  Ten seconds mirrors typical request deadlines.
const lockWaitSeconds = 10

// BookingRepo provides persistence for bookings.  It serves two distinct
// callers: the availability engine reads overlap state through plain
// connection-pool queries, while the conflict guard validates and writes
// through Atomic, which pins a dedicated session so that MySQL named
// locks and the transaction share a connection.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that manage their own
// transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// The overlap predicate used for every conflict scan, in both the room and
// user dimension: an existing interval [s, e) overlaps a candidate
// [start, end) iff s < end AND e > start.  Touching boundaries do not
// overlap, so back-to-back bookings pass.
const (
	roomOverlapQ = `SELECT EXISTS(
	                  SELECT 1 FROM bookings
	                  WHERE room_id = ? AND date = ?
	                    AND start_time < ? AND end_time > ?
	                    AND (? = 0 OR id <> ?))`
	userOverlapQ = `SELECT EXISTS(
	                  SELECT 1 FROM bookings
	                  WHERE user_id = ? AND date = ?
	                    AND start_time < ? AND end_time > ?
	                    AND (? = 0 OR id <> ?))`
)

// RoomOverlapExists reports whether any booking for the room on the date
// overlaps [start, end), excluding excludeID when non-zero.  It reads over
// current state with no side effects; the availability engine uses it
// directly.
func (r *BookingRepo) RoomOverlapExists(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, roomOverlapQ, roomID, date, end, start, excludeID, excludeID).Scan(&exists)
	return exists, err
}

// UserOverlapExists is the user-dimension counterpart of
// RoomOverlapExists: it scans the user's bookings on the date regardless
// of room.
func (r *BookingRepo) UserOverlapExists(ctx context.Context, userID uint64, date, start, end string, excludeID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, userOverlapQ, userID, date, end, start, excludeID, excludeID).Scan(&exists)
	return exists, err
}

// Atomic implements booking.Store.  It pins one connection, acquires the
// given MySQL named locks in sorted order (stable ordering prevents two
// submissions from deadlocking on each other's keys), runs fn inside a
// transaction on that connection and releases the locks afterwards.  If
// fn returns an error the transaction is rolled back and the error is
// returned unchanged.
func (r *BookingRepo) Atomic(ctx context.Context, keys []booking.LockKey, fn func(tx booking.Tx) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	sorted := make([]string, len(keys))
	for i, k := range keys {
		sorted[i] = string(k)
	}
	sort.Strings(sorted)

	acquired := make([]string, 0, len(sorted))
	defer func() {
		for _, name := range acquired {
			_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, name)
		}
	}()
	for _, name := range sorted {
		var got sql.NullInt64
		if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, lockWaitSeconds).Scan(&got); err != nil {
			return err
		}
		if !got.Valid || got.Int64 != 1 {
			return fmt.Errorf("acquire lock %s: timed out", name)
		}
		acquired = append(acquired, name)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// bookingTx adapts a *sql.Tx to the booking.Tx surface the guard
// validates and persists through.
type bookingTx struct {
	tx *sql.Tx
}

func (t *bookingTx) RoomOverlapExists(ctx context.Context, roomID uint64, date, start, end string, excludeID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, roomOverlapQ, roomID, date, end, start, excludeID, excludeID).Scan(&exists)
	return exists, err
}

func (t *bookingTx) UserOverlapExists(ctx context.Context, userID uint64, date, start, end string, excludeID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, userOverlapQ, userID, date, end, start, excludeID, excludeID).Scan(&exists)
	return exists, err
}

// InsertBooking creates the booking row and reads it back so timestamps
// and the generated ID are populated on the model.
func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, room_id, date, start_time, end_time) VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, b.UserID, b.RoomID, b.Date, b.StartTime, b.EndTime)
	if err != nil {
		return mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return scanBookingRow(t.tx.QueryRowContext(ctx, selectBookingQ+` WHERE id = ?`, b.ID), b)
}

// UpdateBooking rewrites the mutable fields of an existing booking and
// reads the row back.  sql.ErrNoRows is returned when the booking has
// disappeared between fetch and update.
func (t *bookingTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings
	           SET user_id = ?, room_id = ?, date = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, q, b.UserID, b.RoomID, b.Date, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero for a no-change update, so confirm the
		// row is really gone before reporting not found.
		var one int
		if scanErr := t.tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, b.ID).Scan(&one); scanErr != nil {
			return ErrBookingNotFound
		}
	}
	return scanBookingRow(t.tx.QueryRowContext(ctx, selectBookingQ+` WHERE id = ?`, b.ID), b)
}

// mapWriteErr converts storage-level constraint rejections (the last line
// of defense against races) into the sentinel the guard re-reports as a
// conflict.  1062 is a duplicate key, 3819 a CHECK constraint violation.
func mapWriteErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "1062") || strings.Contains(msg, "3819") {
		return booking.ErrStorageConflict
	}
	return err
}

const selectBookingQ = `SELECT id, user_id, room_id,
	DATE_FORMAT(date, '%Y-%m-%d'), TIME_FORMAT(start_time, '%H:%i:%s'), TIME_FORMAT(end_time, '%H:%i:%s'),
	created_at, updated_at FROM bookings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingRow(row rowScanner, b *model.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.RoomID, &b.Date, &b.StartTime, &b.EndTime, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a booking by id or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBookingRow(r.db.QueryRowContext(ctx, selectBookingQ+` WHERE id = ?`, id), &b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// BookingFilter narrows List results.  Zero values mean "no filter".
// UserID restricts results to one owner; administrators list with a zero
// UserID to see everything.
type BookingFilter struct {
	UserID uint64
	RoomID uint64
	Date   string
}

// List returns bookings matching the filter ordered by date then start
// time, the canonical ordering for schedule views.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]*model.Booking, error) {
	q := selectBookingQ + ` WHERE 1=1`
	args := make([]any, 0, 3)
	if f.UserID != 0 {
		q += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.RoomID != 0 {
		q += ` AND room_id = ?`
		args = append(args, f.RoomID)
	}
	if f.Date != "" {
		q += ` AND date = ?`
		args = append(args, f.Date)
	}
	q += ` ORDER BY date, start_time`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Booking, 0)
	for rows.Next() {
		b := new(model.Booking)
		if err := scanBookingRow(rows, b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a booking.  Deletion performs no conflict validation;
// ErrBookingNotFound is returned when the row does not exist so a repeated
// delete surfaces as not-found at the boundary.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
