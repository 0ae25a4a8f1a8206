package model

import "time"

// Reservation statuses.  A reservation transitions reserved→cancelled
// exactly once; cancelling an already-cancelled reservation is a hard
// error, not a silent no-op, because the mobile client distinguishes
// the two outcomes.
const (
	ReservationReserved  = "reserved"
	ReservationCancelled = "cancelled"
)

// Reservation records a user's claim on a single seat.  Reservations
// are never physically deleted; cancelled rows remain as history.
//
// Fields:
//  ID         – generated identifier (random hex).
//  UserID     – opaque user identifier supplied by the auth middleware.
//  SeatID     – the reserved seat.
//  Status     – reserved or cancelled.
//  ReservedAt – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
	ID         string    `json:"id"`         // reservations.id
	UserID     string    `json:"userId"`     // reservations.user_id
	SeatID     string    `json:"seatId"`     // reservations.seat_id
	Status     string    `json:"status"`     // reservations.status
	ReservedAt time.Time `json:"reservedAt"` // reservations.reserved_at
	UpdatedAt  time.Time `json:"updatedAt"`  // reservations.updated_at
}
