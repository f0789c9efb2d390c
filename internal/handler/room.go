package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-booking/internal/availability"
	"github.com/iliyamo/meeting-room-booking/internal/model"
	"github.com/iliyamo/meeting-room-booking/internal/repository"
)

// RoomHandler serves room CRUD and availability queries.  Reads are open
// to every authenticated user; writes require the ADMIN role, enforced by
// route middleware.
type RoomHandler struct {
	Rooms  *repository.RoomRepo
	Engine *availability.Engine
}

// NewRoomHandler constructs a RoomHandler.  All dependencies must be
// non-nil.
func NewRoomHandler(rooms *repository.RoomRepo, engine *availability.Engine) *RoomHandler {
	if rooms == nil || engine == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Engine: engine}
}

type roomReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	Floor    uint32 `json:"floor"`
}

func (r roomReq) validate() (string, bool) {
	if strings.TrimSpace(r.Name) == "" {
		return "name is required", false
	}
	if r.Capacity == 0 {
		return "capacity must be a positive number", false
	}
	if r.Floor == 0 {
		return "floor must be a positive number", false
	}
	return "", true
}

// slotQuery extracts and validates the optional date/start_time/end_time
// availability query parameters.  All three must be present together.
func slotQuery(c echo.Context) (date, start, end string, ok bool, err error) {
	d := c.QueryParam("date")
	s := c.QueryParam("start_time")
	e := c.QueryParam("end_time")
	if d == "" && s == "" && e == "" {
		return "", "", "", false, nil
	}
	if d == "" || s == "" || e == "" {
		return "", "", "", false, errors.New("date, start_time and end_time must be provided together")
	}
	if date, err = model.ParseDate(d); err != nil {
		return "", "", "", false, err
	}
	if start, err = model.ParseTimeOfDay(s); err != nil {
		return "", "", "", false, err
	}
	if end, err = model.ParseTimeOfDay(e); err != nil {
		return "", "", "", false, err
	}
	if end <= start {
		return "", "", "", false, errors.New("end_time must be after start_time")
	}
	return date, start, end, true, nil
}

// List handles GET /v1/rooms.  Supported filters: floor (exact),
// capacity (minimum), search (name substring) and a date/start_time/
// end_time triple that narrows the result to rooms free for that slot.
func (h *RoomHandler) List(c echo.Context) error {
	var f repository.RoomFilter
	if v := c.QueryParam("floor"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid floor"})
		}
		f.Floor = uint32(n)
	}
	if v := c.QueryParam("capacity"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid capacity"})
		}
		f.MinCapacity = uint32(n)
	}
	f.Search = strings.TrimSpace(c.QueryParam("search"))
	f.OrderBy = c.QueryParam("ordering")

	ctx := c.Request().Context()
	rooms, err := h.Rooms.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}

	date, start, end, hasSlot, err := slotQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if hasSlot {
		ids := make([]uint64, len(rooms))
		byID := make(map[uint64]*model.Room, len(rooms))
		for i, rm := range rooms {
			ids[i] = rm.ID
			byID[rm.ID] = rm
		}
		free, err := h.Engine.FilterAvailable(ctx, ids, date, start, end)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
		}
		filtered := make([]*model.Room, 0, len(free))
		for _, id := range free {
			filtered = append(filtered, byID[id])
		}
		rooms = filtered
	}

	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// Get handles GET /v1/rooms/:id.  When the date/start_time/end_time query
// parameters are present the response also reports whether the room is
// free for that slot.
func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx := c.Request().Context()
	rm, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}

	date, start, end, hasSlot, err := slotQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !hasSlot {
		return c.JSON(http.StatusOK, echo.Map{"item": rm})
	}
	free, err := h.Engine.IsAvailable(ctx, rm.ID, date, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": rm, "available": free})
}

// CheckAvailability handles GET /v1/rooms/:id/availability.  It requires
// the full date/start_time/end_time triple and answers with a bare
// boolean.  The query is idempotent: repeated calls with no intervening
// writes return the same result.
func (h *RoomHandler) CheckAvailability(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Rooms.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}

	date, start, end, hasSlot, err := slotQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !hasSlot {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date, start_time and end_time are required"})
	}
	free, err := h.Engine.IsAvailable(ctx, id, date, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": free})
}

// Create handles POST /v1/rooms (ADMIN only).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rm := model.Room{Name: strings.TrimSpace(req.Name), Capacity: req.Capacity, Floor: req.Floor}
	if err := h.Rooms.Create(c.Request().Context(), &rm); err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": rm})
}

// Update handles PUT /v1/rooms/:id (ADMIN only).  The room's identity may
// change name only through this endpoint; capacity and floor are mutable.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rm := model.Room{ID: id, Name: strings.TrimSpace(req.Name), Capacity: req.Capacity, Floor: req.Floor}
	if err := h.Rooms.Update(c.Request().Context(), &rm); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrRoomExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": rm})
}

// Delete handles DELETE /v1/rooms/:id (ADMIN only).  Bookings referencing
// the room are removed by the schema's cascading foreign key.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
	}
	return c.NoContent(http.StatusNoContent)
}
