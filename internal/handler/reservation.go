package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
	"github.com/iamjiwoo/subway-priority-seat/internal/service"
)

// ReservationHandler exposes the reserve/cancel endpoints.  All
// methods assume that JWT authentication and certificate verification
// have already been performed by middleware; the authenticated user ID
// is read from the context and trusted without re-verification.
type ReservationHandler struct {
	Reservations service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: svc}
}

// getUserID extracts the authenticated user's opaque identifier from
// the context, where JWTAuth stored it.
func getUserID(c echo.Context) (string, error) {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}

// Create handles POST /api/reservations.  The body must contain a
// JSON object with a "seatId" string.  On success it returns 201 with
// the new reservation ID.  A missing seatId yields 400, an unknown
// seat 404, and a seat that is not available (including losing a race
// against a concurrent reserve) 409.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		SeatID string `json:"seatId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SeatID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatId is required"})
	}

	res, err := h.Reservations.Reserve(c.Request().Context(), body.SeatID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, service.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservationId": res.ID,
	})
}

// Delete handles DELETE /api/reservations/:id.  It cancels a
// reservation belonging to the current user.  Returns 200 with the
// released seat on success, 404 when the reservation does not exist,
// 403 when it belongs to another user, and 409 when it was already
// cancelled.
func (h *ReservationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID := c.Param("id")
	if resID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	seat, err := h.Reservations.Cancel(c.Request().Context(), resID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, service.ErrNotOwner):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner may cancel a reservation"})
		case errors.Is(err, service.ErrAlreadyCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "reservation cancelled",
		"seat":    seat,
	})
}

// ListMine handles GET /api/reservations/mine.  It returns the
// caller's reservation history, newest first; cancelled reservations
// are included.  When no reservations exist, it returns an empty
// array.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
	})
}
