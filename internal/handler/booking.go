package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-booking/internal/booking"
	"github.com/iliyamo/meeting-room-booking/internal/model"
	"github.com/iliyamo/meeting-room-booking/internal/queue"
	"github.com/iliyamo/meeting-room-booking/internal/repository"
	queuepublisher "github.com/iliyamo/meeting-room-booking/internal/service"
)

// BookingHandler serves the booking CRUD surface.  Every create and update
// flows through the conflict guard; the handler itself never writes a
// booking directly, so validation cannot be bypassed by a stray storage
// call.  Authorization is explicit: the acting user id and admin flag come
// from the JWT claims and are passed down, never read from ambient state.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Rooms    *repository.RoomRepo
	Guard    *booking.Guard
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(bookings *repository.BookingRepo, rooms *repository.RoomRepo, guard *booking.Guard) *BookingHandler {
	if bookings == nil || rooms == nil || guard == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Rooms: rooms, Guard: guard}
}

type bookingReq struct {
	RoomID    *uint64 `json:"room_id"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// apply overlays the request onto a booking, normalizing date and time
// values.  Fields absent from the request keep their current values, which
// gives update handlers partial-update semantics for free.
func (req bookingReq) apply(b *model.Booking) error {
	if req.RoomID != nil {
		if *req.RoomID == 0 {
			return errors.New("room_id must be a positive number")
		}
		b.RoomID = *req.RoomID
	}
	if req.Date != nil {
		d, err := model.ParseDate(*req.Date)
		if err != nil {
			return err
		}
		b.Date = d
	}
	if req.StartTime != nil {
		t, err := model.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return err
		}
		b.StartTime = t
	}
	if req.EndTime != nil {
		t, err := model.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			return err
		}
		b.EndTime = t
	}
	return nil
}

// writeGuardError maps guard validation errors onto HTTP responses:
// conflicts to 409, the remaining validation kinds to 400.  The structured
// field tag rides along so clients can attach the message to a form field.
func writeGuardError(c echo.Context, err error) error {
	var ve *booking.Error
	if errors.As(err, &ve) {
		status := http.StatusBadRequest
		if booking.IsConflict(err) {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": ve.Message, "field": ve.Field})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save booking"})
}

// List handles GET /v1/bookings.  Regular users see only their own
// bookings; administrators see everything.  Optional filters: date,
// room_id.  Results are ordered by date then start time.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f := repository.BookingFilter{}
	if !isAdmin(c) {
		f.UserID = userID
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		f.Date = d
	}
	if v := c.QueryParam("room_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
		}
		f.RoomID = n
	}

	items, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/bookings.  The booking is validated and
// persisted atomically by the guard; on success a booking.created event is
// published (failures there are logged and ignored).
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RoomID == nil || req.Date == nil || req.StartTime == nil || req.EndTime == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id, date, start_time and end_time are required"})
	}
	b := model.Booking{UserID: userID}
	if err := req.apply(&b); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	rm, err := h.Rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}

	saved, err := h.Guard.Submit(ctx, &b)
	if err != nil {
		return writeGuardError(c, err)
	}

	_ = queuepublisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Action:    queue.ActionCreated,
		BookingID: saved.ID,
		UserID:    saved.UserID,
		RoomID:    saved.RoomID,
		RoomName:  rm.Name,
		Date:      saved.Date,
		StartTime: saved.StartTime,
		EndTime:   saved.EndTime,
	})
	return c.JSON(http.StatusCreated, echo.Map{"item": saved})
}

// Get handles GET /v1/bookings/:id (owner or admin).
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Update handles PUT /v1/bookings/:id (owner or admin).  The modified
// booking is re-validated through the guard with its own id excluded from
// both overlap scans, so it never conflicts with itself.
func (h *BookingHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := req.apply(b); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.RoomID != nil {
		if _, err := h.Rooms.GetByID(ctx, b.RoomID); err != nil {
			if errors.Is(err, repository.ErrRoomNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
		}
	}

	saved, err := h.Guard.Submit(ctx, b)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return writeGuardError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": saved})
}

// Delete handles DELETE /v1/bookings/:id (owner or admin).  Deletion needs
// no conflict validation; a repeated delete reports not-found.
func (h *BookingHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Bookings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete booking"})
	}

	_ = queuepublisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Action:    queue.ActionCancelled,
		BookingID: b.ID,
		UserID:    b.UserID,
		RoomID:    b.RoomID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	})
	return c.NoContent(http.StatusNoContent)
}
