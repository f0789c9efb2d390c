package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/meeting-room-booking/internal/model"
)

// RoomRepo provides CRUD operations for meeting rooms.  Room names are
// unique; capacity and floor are positive integers enforced both here and
// by the schema.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const selectRoomQ = `SELECT id, name, capacity, floor, created_at, updated_at FROM rooms`

func scanRoom(row rowScanner, rm *model.Room) error {
	return row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Floor, &rm.CreatedAt, &rm.UpdatedAt)
}

// Create inserts a new room and reads the record back so timestamps and
// the generated ID are populated.  ErrRoomExists is returned when the name
// is already taken.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, capacity, floor) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.Floor)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrRoomExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return scanRoom(r.db.QueryRowContext(ctx, selectRoomQ+` WHERE id = ?`, rm.ID), rm)
}

// GetByID retrieves a room by its ID.  It returns ErrRoomNotFound when no
// row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var rm model.Room
	err := scanRoom(r.db.QueryRowContext(ctx, selectRoomQ+` WHERE id = ?`, id), &rm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// RoomFilter narrows List results.  Zero values mean "no filter".
// MinCapacity keeps rooms whose capacity is at least the given value;
// Search matches a substring of the room name.
type RoomFilter struct {
	Floor       uint32
	MinCapacity uint32
	Search      string
	OrderBy     string // "name", "floor" or "capacity"; default floor, name
}

// List returns rooms matching the filter.  Availability filtering is not
// done here; callers combine List with the availability engine to compute
// the free subset for a date and interval.
func (r *RoomRepo) List(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	q := selectRoomQ + ` WHERE 1=1`
	args := make([]any, 0, 3)
	if f.Floor != 0 {
		q += ` AND floor = ?`
		args = append(args, f.Floor)
	}
	if f.MinCapacity != 0 {
		q += ` AND capacity >= ?`
		args = append(args, f.MinCapacity)
	}
	if f.Search != "" {
		q += ` AND name LIKE ?`
		args = append(args, "%"+f.Search+"%")
	}
	switch f.OrderBy {
	case "name":
		q += ` ORDER BY name`
	case "capacity":
		q += ` ORDER BY capacity, name`
	default:
		q += ` ORDER BY floor, name`
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Room, 0)
	for rows.Next() {
		rm := new(model.Room)
		if err := scanRoom(rows, rm); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites a room's name, capacity and floor.  ErrRoomNotFound is
// returned when the room does not exist and ErrRoomExists when the new
// name collides with another room.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms SET name = ?, capacity = ?, floor = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.Floor, rm.ID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrRoomExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if scanErr := r.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, rm.ID).Scan(&one); scanErr != nil {
			return ErrRoomNotFound
		}
	}
	return scanRoom(r.db.QueryRowContext(ctx, selectRoomQ+` WHERE id = ?`, rm.ID), rm)
}

// Delete removes a room and, via the schema's cascading foreign key, its
// bookings.  ErrRoomNotFound is returned when the room does not exist.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
