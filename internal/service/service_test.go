package service

import (
	"context"
	"sync"

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/model"
	q "github.com/iamjiwoo/subway-priority-seat/internal/queue"
	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
)

// --- In-memory SeatStore ---

// memSeatStore implements SeatStore with the same conditional-write
// semantics as the SQL repository: the compare-and-set only succeeds
// when the stored status still matches, under one lock, so concurrent
// callers race exactly as they would against the database.
type memSeatStore struct {
	mu    sync.Mutex
	seats map[string]model.Seat
}

func newMemSeatStore(seats ...model.Seat) *memSeatStore {
	s := &memSeatStore{seats: make(map[string]model.Seat)}
	for _, seat := range seats {
		s.seats[seat.ID] = seat
	}
	return s
}

func copySeat(s model.Seat) *model.Seat {
	if s.CurrentReservationID != nil {
		rid := *s.CurrentReservationID
		s.CurrentReservationID = &rid
	}
	return &s
}

func (m *memSeatStore) GetByID(_ context.Context, seatID string) (*model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	return copySeat(s), nil
}

func (m *memSeatStore) CompareAndSetStatus(_ context.Context, seatID, expectedStatus, newStatus string, reservationID *string) (*model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	if s.Status != expectedStatus {
		return nil, repository.ErrConflict
	}
	s.Status = newStatus
	s.CurrentReservationID = reservationID
	s.UpdatedAt = s.UpdatedAt.Add(1) // strictly monotonic per seat
	m.seats[seatID] = s
	return copySeat(s), nil
}

func (m *memSeatStore) SetStatus(_ context.Context, seatID, newStatus string, reservationID *string) (*model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	s.Status = newStatus
	s.CurrentReservationID = reservationID
	s.UpdatedAt = s.UpdatedAt.Add(1)
	m.seats[seatID] = s
	return copySeat(s), nil
}

// --- In-memory ReservationStore ---

type memReservationStore struct {
	mu           sync.Mutex
	reservations map[string]model.Reservation
}

func newMemReservationStore() *memReservationStore {
	return &memReservationStore{reservations: make(map[string]model.Reservation)}
}

func (m *memReservationStore) Create(_ context.Context, res *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[res.ID] = *res
	return nil
}

func (m *memReservationStore) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (m *memReservationStore) CompareAndSetStatus(_ context.Context, id, expectedStatus, newStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if r.Status != expectedStatus {
		return repository.ErrConflict
	}
	r.Status = newStatus
	m.reservations[id] = r
	return nil
}

// staleReservationReads wraps a store so that reads can be made to
// return a reservation as still reserved after it was cancelled,
// reproducing a cancel that read the record before a concurrent
// cancel committed.
type staleReservationReads struct {
	*memReservationStore
	mu    sync.Mutex
	stale bool
}

func (s *staleReservationReads) setStale(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = v
}

func (s *staleReservationReads) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := s.memReservationStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	stale := s.stale
	s.mu.Unlock()
	if stale {
		c := *r
		c.Status = model.ReservationReserved
		return &c, nil
	}
	return r, nil
}

func (m *memReservationStore) ListByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Recording broadcaster and publisher ---

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []hub.Event
}

func (b *recordingBroadcaster) Broadcast(ev hub.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBroadcaster) Events() []hub.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]hub.Event, len(b.events))
	copy(out, b.events)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.SeatStatusChangedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev q.SeatStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []q.SeatStatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]q.SeatStatusChangedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func availableSeat(id string) model.Seat {
	return model.Seat{
		ID:          id,
		TrainNumber: "2344",
		CarNumber:   3,
		SeatNumber:  1,
		SeatType:    model.SeatTypePriority,
		Status:      model.SeatAvailable,
	}
}
