package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iamjiwoo/subway-priority-seat/internal/layout"
	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
	"github.com/iamjiwoo/subway-priority-seat/internal/service"
)

// SeatHandler groups the seat read endpoints, the sensor-facing status
// ingest, and train provisioning.  Read endpoints are public (guests
// can inspect a seat map before logging in); the write endpoints sit
// behind the hardware token middleware.
type SeatHandler struct {
	Seats  *repository.SeatRepo
	Ingest service.IngestService
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(seats *repository.SeatRepo, ingest service.IngestService) *SeatHandler {
	if seats == nil || ingest == nil {
		panic("nil dependency passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats, Ingest: ingest}
}

// GetStatus handles GET /api/seats/status/:trainNumber/:carNumber.  It
// returns the current state of every seat in one car, ordered by seat
// number.  Connected viewers use this as their initial full-state
// fetch and then apply broadcast events on top.
func (h *SeatHandler) GetStatus(c echo.Context) error {
	trainNumber := c.Param("trainNumber")
	carNumber, err := strconv.ParseUint(c.Param("carNumber"), 10, 32)
	if err != nil || carNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car number"})
	}
	seats, err := h.Seats.ListByTrainCar(c.Request().Context(), trainNumber, uint32(carNumber))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trainNumber": trainNumber,
		"carNumber":   carNumber,
		"seats":       seats,
	})
}

// GetAvailable handles GET /api/seats/available/:trainNumber.  It
// lists every currently available seat on a train.
func (h *SeatHandler) GetAvailable(c echo.Context) error {
	trainNumber := c.Param("trainNumber")
	seats, err := h.Seats.ListAvailableByTrain(c.Request().Context(), trainNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trainNumber": trainNumber,
		"seats":       seats,
	})
}

// GetPriority handles GET /api/seats/priority/:trainNumber.  It lists
// a train's priority seats regardless of status, which is what the
// seat-search page renders.
func (h *SeatHandler) GetPriority(c echo.Context) error {
	trainNumber := c.Param("trainNumber")
	seats, err := h.Seats.ListPriorityByTrain(c.Request().Context(), trainNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trainNumber": trainNumber,
		"seats":       seats,
	})
}

// UpdateStatus handles PATCH /api/seats/:seatId/status, the
// sensor-facing ingest.  The body must contain a JSON object with a
// "status" string.  Returns 200 with the updated seat, 400 on a
// missing or unknown status, 404 for an unknown seat, and 409 when the
// seat is held by an active reservation or the write lost a race.
func (h *SeatHandler) UpdateStatus(c echo.Context) error {
	seatID := c.Param("seatId")
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	seat, err := h.Ingest.ApplyHardwareStatus(c.Request().Context(), seatID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, service.ErrSeatReserved), errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is held by an active reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"seat": seat,
	})
}

// ProvisionTrain handles POST /api/trains/:trainNumber/seats.  It
// creates the full seat set for a train from its line layout.  The
// insert ignores seats that already exist, so re-provisioning is
// harmless.  Returns 201 with the number of newly created seats.
func (h *SeatHandler) ProvisionTrain(c echo.Context) error {
	trainNumber := c.Param("trainNumber")
	seats, err := layout.GenerateSeats(trainNumber)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown train or line"})
	}
	created, err := h.Seats.CreateBulk(c.Request().Context(), seats)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to provision seats"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"trainNumber": trainNumber,
		"created":     created,
		"total":       len(seats),
	})
}
