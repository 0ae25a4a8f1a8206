package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/model"
	q "github.com/iamjiwoo/subway-priority-seat/internal/queue"
)

var (
	// ErrInvalidStatus is returned when a hardware push carries a
	// status outside the seat vocabulary, or tries to set "reserved"
	// (reservations are owned by the reservation path, not sensors).
	ErrInvalidStatus = errors.New("invalid seat status")
	// ErrSeatReserved is returned when a hardware push targets a seat
	// that currently belongs to an active reservation.  The sensor
	// only sees physical occupancy and must not strand the
	// reservation's bookkeeping; the seat has to be released through
	// the reservation path first.
	ErrSeatReserved = errors.New("seat is held by an active reservation")
)

// IngestService accepts seat-status changes pushed from sensor
// hardware and applies them to the seat store.  The sensor is
// authoritative for occupied/available on unreserved seats.
type IngestService interface {
	ApplyHardwareStatus(ctx context.Context, seatID, newStatus string) (*model.Seat, error)
}

type ingestService struct {
	seats       SeatStore
	broadcaster Broadcaster
	publish     Publisher
}

// NewIngestService wires an IngestService.  publish may be nil, in
// which case a default-broker publisher is used.
func NewIngestService(seats SeatStore, b Broadcaster, publish Publisher) IngestService {
	if publish == nil {
		publish = NewSeatStatusPublisher("")
	}
	return &ingestService{seats: seats, broadcaster: b, publish: publish}
}

// ApplyHardwareStatus writes a sensor-reported status to a seat.
//
// A push against a reserved seat is rejected with ErrSeatReserved
// rather than applied: overwriting would leave current_reservation_id
// pointing at a live reservation while the seat shows a sensor status.
// The write itself is a compare-and-set against the status just
// observed, so a reservation that lands between the read and the write
// surfaces as a conflict instead of being clobbered.
func (s *ingestService) ApplyHardwareStatus(ctx context.Context, seatID, newStatus string) (*model.Seat, error) {
	if !model.ValidSeatStatus(newStatus) || newStatus == model.SeatReserved {
		return nil, ErrInvalidStatus
	}
	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.Status == model.SeatReserved {
		return nil, ErrSeatReserved
	}

	updated, err := s.seats.CompareAndSetStatus(ctx, seatID, seat.Status, newStatus, nil)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(hub.SeatStatusUpdated(*updated))
	ev := q.SeatStatusChangedEvent{
		SeatID:      updated.ID,
		TrainNumber: updated.TrainNumber,
		CarNumber:   updated.CarNumber,
		SeatNumber:  updated.SeatNumber,
		OldStatus:   seat.Status,
		NewStatus:   updated.Status,
		Source:      q.SourceHardware,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("seat-status publish failed (seat=%s): %v", updated.ID, err)
	}
	return updated, nil
}
