package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamjiwoo/subway-priority-seat/internal/model"
	q "github.com/iamjiwoo/subway-priority-seat/internal/queue"
	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
)

func newTestReservationService(seats *memSeatStore) (ReservationService, *memReservationStore, *recordingBroadcaster, *recordingPublisher) {
	reservations := newMemReservationStore()
	b := &recordingBroadcaster{}
	p := &recordingPublisher{}
	svc := NewReservationService(seats, reservations, b, p.Publish)
	return svc, reservations, b, p
}

func TestReserveSuccess(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, reservations, b, p := newTestReservationService(seats)

	res, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	assert.Equal(t, "u1", res.UserID)
	assert.Equal(t, model.ReservationReserved, res.Status)

	seat, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatReserved, seat.Status)
	require.NotNil(t, seat.CurrentReservationID)
	assert.Equal(t, res.ID, *seat.CurrentReservationID)

	// The seat's owning reservation must itself be active.
	stored, err := reservations.GetByID(context.Background(), *seat.CurrentReservationID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, stored.Status)

	// Exactly one broadcast and one queue event, carrying full state.
	events := b.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "SEAT_STATUS_UPDATED", events[0].Type)
	assert.Equal(t, model.SeatReserved, events[0].Payload.Status)

	pubs := p.Events()
	require.Len(t, pubs, 1)
	assert.Equal(t, model.SeatAvailable, pubs[0].OldStatus)
	assert.Equal(t, model.SeatReserved, pubs[0].NewStatus)
	assert.Equal(t, q.SourceReservation, pubs[0].Source)
	assert.Equal(t, res.ID, pubs[0].ReservationID)
}

func TestReserveSeatNotFound(t *testing.T) {
	svc, _, b, _ := newTestReservationService(newMemSeatStore())

	_, err := svc.Reserve(context.Background(), "9999-1-1", "u1")
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
	assert.Empty(t, b.Events())
}

func TestReserveUnavailableSeat(t *testing.T) {
	seat := availableSeat("2344-3-1")
	seat.Status = model.SeatOccupied
	seats := newMemSeatStore(seat)
	svc, _, b, _ := newTestReservationService(seats)

	_, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	// A failed write produces no broadcast.
	assert.Empty(t, b.Events())
}

// TestReserveMutualExclusion drives many concurrent reserves against a
// single available seat: exactly one must win, everyone else must see
// ErrSeatUnavailable, and every loser's tentative reservation must end
// up cancelled by the compensating write.
func TestReserveMutualExclusion(t *testing.T) {
	const attempts = 32

	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, reservations, b, _ := newTestReservationService(seats)

	var wg sync.WaitGroup
	results := make([]error, attempts)
	ids := make([]string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Reserve(context.Background(), "2344-3-1", "user")
			results[i] = err
			if err == nil {
				ids[i] = res.ID
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	var winnerID string
	for i, err := range results {
		if err == nil {
			winners++
			winnerID = ids[i]
		} else {
			assert.ErrorIs(t, err, ErrSeatUnavailable)
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent reserve must succeed")

	seat, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatReserved, seat.Status)
	require.NotNil(t, seat.CurrentReservationID)
	assert.Equal(t, winnerID, *seat.CurrentReservationID)

	// Consistency: only the winning reservation is active.
	reservations.mu.Lock()
	for id, r := range reservations.reservations {
		if id == winnerID {
			assert.Equal(t, model.ReservationReserved, r.Status)
		} else {
			assert.Equal(t, model.ReservationCancelled, r.Status, "losing reservation %s must be compensated", id)
		}
	}
	reservations.mu.Unlock()

	// One successful write, one broadcast.
	assert.Len(t, b.Events(), 1)
}

func TestCancelSuccess(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, _, b, p := newTestReservationService(seats)

	res, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)

	seat, err := svc.Cancel(context.Background(), res.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seat.Status)
	assert.Nil(t, seat.CurrentReservationID)

	// Reserve + cancel = two broadcasts, two queue events.
	assert.Len(t, b.Events(), 2)
	pubs := p.Events()
	require.Len(t, pubs, 2)
	assert.Equal(t, q.SourceCancellation, pubs[1].Source)
	assert.Equal(t, model.SeatAvailable, pubs[1].NewStatus)
}

func TestCancelThenReserveAgain(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, _, _, _ := newTestReservationService(seats)

	first, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), first.ID, "u1")
	require.NoError(t, err)

	second, err := svc.Reserve(context.Background(), "2344-3-1", "u2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	seat, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	require.NotNil(t, seat.CurrentReservationID)
	assert.Equal(t, second.ID, *seat.CurrentReservationID)
}

func TestCancelNotOwner(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, _, b, _ := newTestReservationService(seats)

	res, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), res.ID, "u2")
	assert.ErrorIs(t, err, ErrNotOwner)

	// Seat untouched, no second broadcast.
	seat, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatReserved, seat.Status)
	assert.Len(t, b.Events(), 1)
}

func TestCancelTwiceRejected(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	svc, _, b, _ := newTestReservationService(seats)

	res, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), res.ID, "u1")
	require.NoError(t, err)

	before, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), res.ID, "u1")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// The failed cancel must not mutate the seat or broadcast.
	after, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, b.Events(), 2)
}

// TestCancelStaleReadDoesNotFreeRebookedSeat reproduces the interleaving
// where a cancel reads its reservation, stalls, and resumes after the
// same reservation was cancelled and the seat reserved again by another
// user.  The resumed cancel's fast-path check passes on its stale read,
// so only the guarded reserved→cancelled write can stop it from
// releasing the new holder's seat.
func TestCancelStaleReadDoesNotFreeRebookedSeat(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"))
	reservations := &staleReservationReads{memReservationStore: newMemReservationStore()}
	b := &recordingBroadcaster{}
	p := &recordingPublisher{}
	svc := NewReservationService(seats, reservations, b, p.Publish)

	first, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), first.ID, "u1")
	require.NoError(t, err)
	second, err := svc.Reserve(context.Background(), "2344-3-1", "u2")
	require.NoError(t, err)

	// The stalled cancel resumes with its pre-cancellation view of the
	// reservation.
	reservations.setStale(true)
	_, err = svc.Cancel(context.Background(), first.ID, "u1")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// The second user's claim is intact.
	seat, err := seats.GetByID(context.Background(), "2344-3-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatReserved, seat.Status)
	require.NotNil(t, seat.CurrentReservationID)
	assert.Equal(t, second.ID, *seat.CurrentReservationID)

	stored, err := reservations.memReservationStore.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, stored.Status)

	// Reserve, cancel, reserve: three broadcasts, nothing from the
	// failed cancel.
	assert.Len(t, b.Events(), 3)
}

func TestCancelUnknownReservation(t *testing.T) {
	svc, _, _, _ := newTestReservationService(newMemSeatStore(availableSeat("2344-3-1")))

	_, err := svc.Cancel(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestListByUser(t *testing.T) {
	seats := newMemSeatStore(availableSeat("2344-3-1"), availableSeat("2344-3-2"))
	svc, _, _, _ := newTestReservationService(seats)

	_, err := svc.Reserve(context.Background(), "2344-3-1", "u1")
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), "2344-3-2", "u2")
	require.NoError(t, err)

	mine, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "2344-3-1", mine[0].SeatID)
}
