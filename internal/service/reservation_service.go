package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/model"
	q "github.com/iamjiwoo/subway-priority-seat/internal/queue"
	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
	"github.com/iamjiwoo/subway-priority-seat/internal/utils"
)

// Business-rule errors.  Storage-level not-found conditions propagate
// as the repository sentinels; these cover the rules layered on top.
var (
	// ErrSeatUnavailable is returned when the seat is not available at
	// read time, or when a concurrent writer won the reserve race.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrNotOwner is returned when a caller tries to cancel someone
	// else's reservation.
	ErrNotOwner = errors.New("reservation belongs to another user")
	// ErrAlreadyCancelled is returned on a repeated cancel.  Cancel is
	// deliberately not idempotent; callers depend on the distinct
	// signal.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
)

// SeatStore is the document-style interface the services drive the
// seat store through.  It deliberately mirrors the get/compare-and-set
// surface of the original datastore so the services never depend on a
// query language.
type SeatStore interface {
	GetByID(ctx context.Context, seatID string) (*model.Seat, error)
	CompareAndSetStatus(ctx context.Context, seatID, expectedStatus, newStatus string, reservationID *string) (*model.Seat, error)
	SetStatus(ctx context.Context, seatID, newStatus string, reservationID *string) (*model.Seat, error)
}

// ReservationStore persists reservation records.  Status transitions
// are guarded the same way seat transitions are: CompareAndSetStatus
// only lands while the record still holds the expected status, so two
// racing cancels cannot both observe the transition as theirs.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	CompareAndSetStatus(ctx context.Context, id, expectedStatus, newStatus string) error
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

// Broadcaster fans a seat change out to connected viewers.  *hub.Hub
// implements it.
type Broadcaster interface {
	Broadcast(ev hub.Event)
}

// Publisher pushes a seat change onto the audit queue.
type Publisher func(ctx context.Context, event q.SeatStatusChangedEvent) error

// ReservationService applies user-initiated reserve and cancel
// operations against the seat store, enforcing at-most-one-active-
// reservation-per-seat.  It is the only writer of reservation records.
// No failure is retried internally; the one corrective write is the
// compensating cancel after a lost reserve race.
type ReservationService interface {
	Reserve(ctx context.Context, seatID, userID string) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID string) (*model.Seat, error)
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

type reservationService struct {
	seats        SeatStore
	reservations ReservationStore
	broadcaster  Broadcaster
	publish      Publisher
}

// NewReservationService wires a ReservationService.  publish may be
// nil, in which case a default-broker publisher is used.
func NewReservationService(seats SeatStore, reservations ReservationStore, b Broadcaster, publish Publisher) ReservationService {
	if publish == nil {
		publish = NewSeatStatusPublisher("")
	}
	return &reservationService{
		seats:        seats,
		reservations: reservations,
		broadcaster:  b,
		publish:      publish,
	}
}

// Reserve claims a seat for a user.
//
// The reservation record and the seat record are distinct entities, so
// the claim runs as a two-step saga: create the reservation
// (tentative), then compare-and-set the seat available→reserved with
// the reservation's ID.  The CAS is what serialises concurrent
// attempts — exactly one writer observes the seat as available and
// wins.  When the CAS reports a conflict the tentative reservation is
// compensated by marking it cancelled, and the caller sees the same
// ErrSeatUnavailable as a fast-path failure.  No retries: the caller
// re-polls or waits for a broadcast.
func (s *reservationService) Reserve(ctx context.Context, seatID, userID string) (*model.Reservation, error) {
	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.Status != model.SeatAvailable {
		return nil, ErrSeatUnavailable
	}

	id, err := utils.NewReservationID()
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{
		ID:     id,
		UserID: userID,
		SeatID: seatID,
		Status: model.ReservationReserved,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	updated, err := s.seats.CompareAndSetStatus(ctx, seatID, model.SeatAvailable, model.SeatReserved, &res.ID)
	if err != nil {
		// Compensating write: the tentative reservation must not stay
		// active when the seat was never committed to it.
		if cErr := s.reservations.CompareAndSetStatus(ctx, res.ID, model.ReservationReserved, model.ReservationCancelled); cErr != nil {
			log.Printf("reserve: compensating cancel of %s failed: %v", res.ID, cErr)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSeatUnavailable
		}
		return nil, err
	}

	s.emit(ctx, *updated, seat.Status, q.SourceReservation, res.ID)
	return res, nil
}

// Cancel releases a reservation.  Only the owner may cancel, and only
// once.  The status check on the read is just the fast path; the
// guarded reserved→cancelled write is what decides.  Without the
// guard, a cancel that read the reservation before a concurrent
// cancel committed could pass the check, then free a seat that a new
// reservation has since claimed.  The seat write itself needs no
// compare: winning the reservation transition is what licenses
// clearing that specific current_reservation_id.
func (s *reservationService) Cancel(ctx context.Context, reservationID, userID string) (*model.Seat, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrNotOwner
	}
	if res.Status == model.ReservationCancelled {
		return nil, ErrAlreadyCancelled
	}

	seat, err := s.seats.GetByID(ctx, res.SeatID)
	if err != nil {
		return nil, err
	}

	if err := s.reservations.CompareAndSetStatus(ctx, res.ID, model.ReservationReserved, model.ReservationCancelled); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyCancelled
		}
		return nil, err
	}
	updated, err := s.seats.SetStatus(ctx, res.SeatID, model.SeatAvailable, nil)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, *updated, seat.Status, q.SourceCancellation, res.ID)
	return updated, nil
}

// ListByUser returns the caller's reservation history, newest first.
func (s *reservationService) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// emit produces the exactly-one broadcast event for a successful seat
// write, plus the audit-queue publish.  The queue is a best-effort
// side channel: a publish failure is logged and the request still
// succeeds.
func (s *reservationService) emit(ctx context.Context, seat model.Seat, oldStatus, source, reservationID string) {
	s.broadcaster.Broadcast(hub.SeatStatusUpdated(seat))
	ev := q.SeatStatusChangedEvent{
		SeatID:        seat.ID,
		TrainNumber:   seat.TrainNumber,
		CarNumber:     seat.CarNumber,
		SeatNumber:    seat.SeatNumber,
		OldStatus:     oldStatus,
		NewStatus:     seat.Status,
		Source:        source,
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("seat-status publish failed (seat=%s): %v", seat.ID, err)
	}
}
