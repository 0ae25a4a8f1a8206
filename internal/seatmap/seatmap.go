// Package seatmap implements the viewer side of the real-time channel:
// merging incoming broadcast events into a locally held seat map.
// Every page that displays seats keeps one of these; the audit
// consumer uses one as its in-memory mirror.  Because each event
// carries the full seat record, applying it is a plain replace, which
// makes consumption idempotent and tolerant of reordered delivery.
package seatmap

import (
	"sync"

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/model"
)

// SeatMap is a viewer's local copy of seat state.  It is safe for
// concurrent use; a viewer typically applies events from its receive
// loop while rendering code reads snapshots.
type SeatMap struct {
	mu    sync.RWMutex
	seats map[string]model.Seat
}

// New returns an empty seat map.
func New() *SeatMap {
	return &SeatMap{seats: make(map[string]model.Seat)}
}

// Load replaces the map's contents with a full-state fetch.  A viewer
// calls this once after connecting; events received before the fetch
// completes are reconciled by Apply's staleness check.
func (m *SeatMap) Load(seats []model.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats = make(map[string]model.Seat, len(seats))
	for _, s := range seats {
		m.seats[s.ID] = s
	}
}

// Apply merges one broadcast event.  The payload replaces the local
// record wholesale unless the local record is already newer (per-seat
// UpdatedAt is non-decreasing on the server, so an older payload is a
// stale duplicate).  Applying the same event twice yields the same map
// as applying it once.  It returns true when the local state changed.
func (m *SeatMap) Apply(ev hub.Event) bool {
	if ev.Type != hub.EventSeatStatusUpdated {
		return false
	}
	seat := ev.Payload
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.seats[seat.ID]; ok {
		if seat.UpdatedAt.Before(cur.UpdatedAt) {
			return false
		}
		if equalSeat(cur, seat) {
			return false
		}
	}
	m.seats[seat.ID] = seat
	return true
}

// equalSeat compares two records field by field, dereferencing the
// nullable reservation pointer so two payloads with equal contents
// compare equal.
func equalSeat(a, b model.Seat) bool {
	if a.ID != b.ID || a.TrainNumber != b.TrainNumber || a.CarNumber != b.CarNumber ||
		a.SeatNumber != b.SeatNumber || a.SeatType != b.SeatType || a.Status != b.Status ||
		!a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if (a.CurrentReservationID == nil) != (b.CurrentReservationID == nil) {
		return false
	}
	if a.CurrentReservationID != nil && *a.CurrentReservationID != *b.CurrentReservationID {
		return false
	}
	return true
}

// Get returns the local record for a seat, if present.
func (m *SeatMap) Get(seatID string) (model.Seat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.seats[seatID]
	return s, ok
}

// Snapshot returns a copy of every held seat record.
func (m *SeatMap) Snapshot() []model.Seat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Seat, 0, len(m.seats))
	for _, s := range m.seats {
		out = append(out, s)
	}
	return out
}

// Len returns the number of seats held.
func (m *SeatMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seats)
}
