// Package hub maintains the set of connected real-time viewers and
// fans seat-status changes out to all of them.  Delivery is
// best-effort: a viewer that connects after an event, or whose
// connection is backed up, simply misses it and relies on its next
// full-state fetch.  Every event carries the full seat record, so a
// missed or reordered event is corrected by the next one.
package hub

import "github.com/iamjiwoo/subway-priority-seat/internal/model"

// EventSeatStatusUpdated is the single server→client message type on
// the real-time channel.
const EventSeatStatusUpdated = "SEAT_STATUS_UPDATED"

// Event is the ephemeral message broadcast to viewers after every
// successful seat write.  It is never persisted and never replayed.
type Event struct {
	Type    string     `json:"type"`
	Payload model.Seat `json:"payload"`
}

// SeatStatusUpdated wraps a seat record in a broadcast event.
func SeatStatusUpdated(seat model.Seat) Event {
	return Event{Type: EventSeatStatusUpdated, Payload: seat}
}
