package model

import (
	"fmt"
	"time"
)

// Seat statuses.  The wire format uses lowercase strings so that the
// mobile client and the sensor gateway share one vocabulary.
const (
	SeatAvailable   = "available"
	SeatOccupied    = "occupied"
	SeatReserved    = "reserved"
	SeatMaintenance = "maintenance"
)

// Seat types.  Priority seats are the ones set aside for pregnant
// passengers; standard seats only appear in the map views.
const (
	SeatTypePriority = "priority"
	SeatTypeStandard = "standard"
)

// Seat describes one physical seat in a train car.  A seat is uniquely
// identified by train number, car number and seat number; externally
// the three are exposed as the single opaque ID string produced by
// SeatID.  CurrentReservationID is set exactly when Status is
// "reserved" and names the owning reservation.  Occupied seats are
// sensor-driven, so an occupied seat never carries a reservation ID.
// UpdatedAt is non-decreasing per seat, which lets viewers drop stale
// broadcast payloads.
type Seat struct {
	ID                   string    `json:"id"`                   // seats.id ({train}-{car}-{seat})
	TrainNumber          string    `json:"trainNumber"`          // seats.train_number
	CarNumber            uint32    `json:"carNumber"`            // seats.car_number
	SeatNumber           uint32    `json:"seatNumber"`           // seats.seat_number
	SeatType             string    `json:"seatType"`             // seats.seat_type
	Status               string    `json:"status"`               // seats.status
	CurrentReservationID *string   `json:"currentReservationId"` // seats.current_reservation_id (nullable)
	UpdatedAt            time.Time `json:"updatedAt"`            // seats.updated_at
}

// SeatID builds the opaque seat identifier from its composite parts.
func SeatID(trainNumber string, carNumber, seatNumber uint32) string {
	return fmt.Sprintf("%s-%d-%d", trainNumber, carNumber, seatNumber)
}

// ValidSeatStatus reports whether s is one of the recognised seat
// statuses.  Hardware pushes are validated against this set before
// they reach the store.
func ValidSeatStatus(s string) bool {
	switch s {
	case SeatAvailable, SeatOccupied, SeatReserved, SeatMaintenance:
		return true
	}
	return false
}
