package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamjiwoo/subway-priority-seat/internal/model"
)

// SeatRepo is the single source of truth for seat status.  Seats are
// keyed by the opaque ID string built from train, car and seat number.
// All mutation goes through CompareAndSetStatus or SetStatus; nothing
// else read-modify-writes a seat row, which is what keeps per-seat
// writes linearizable.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = `id, train_number, car_number, seat_number, seat_type, status, current_reservation_id, updated_at`

const selectSeatByID = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`

// scanSeat scans one seat row from either *sql.Row or *sql.Rows.
func scanSeat(scan func(dest ...interface{}) error) (*model.Seat, error) {
	var s model.Seat
	var resID sql.NullString
	if err := scan(&s.ID, &s.TrainNumber, &s.CarNumber, &s.SeatNumber,
		&s.SeatType, &s.Status, &resID, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if resID.Valid {
		rid := resID.String
		s.CurrentReservationID = &rid
	}
	return &s, nil
}

// GetByID returns the seat with the given identifier or ErrSeatNotFound.
func (r *SeatRepo) GetByID(ctx context.Context, seatID string) (*model.Seat, error) {
	seat, err := scanSeat(r.db.QueryRowContext(ctx, selectSeatByID, seatID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// CompareAndSetStatus transitions a seat from expectedStatus to
// newStatus, recording reservationID (which may be nil to clear the
// owning reservation).  The write only succeeds if the seat is still
// in expectedStatus at the moment of the UPDATE; when another writer
// got there first, zero rows are affected and ErrConflict is returned.
// This conditional single-row UPDATE is the mutual-exclusion mechanism
// that prevents two concurrent reservations from both claiming the
// same seat.  UPDATE and read-back run in one transaction so the
// returned record is exactly the state the winning write produced,
// not some later write that slipped in between two statements.
func (r *SeatRepo) CompareAndSetStatus(ctx context.Context, seatID, expectedStatus, newStatus string, reservationID *string) (*model.Seat, error) {
	const q = `UPDATE seats
	           SET status = ?, current_reservation_id = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, q, newStatus, reservationID, time.Now().UTC(), seatID, expectedStatus)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish a lost race from a missing seat.
		if _, err := r.GetByID(ctx, seatID); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	seat, err := scanSeat(tx.QueryRowContext(ctx, selectSeatByID, seatID).Scan)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return seat, nil
}

// SetStatus writes a seat status unconditionally.  It is used by the
// cancel path (only the owning reservation may clear its own
// current_reservation_id, so no compare is needed) and by hardware
// ingest once the service has vetted the transition.
func (r *SeatRepo) SetStatus(ctx context.Context, seatID, newStatus string, reservationID *string) (*model.Seat, error) {
	const q = `UPDATE seats
	           SET status = ?, current_reservation_id = ?, updated_at = ?
	           WHERE id = ?`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, q, newStatus, reservationID, time.Now().UTC(), seatID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrSeatNotFound
	}
	seat, err := scanSeat(tx.QueryRowContext(ctx, selectSeatByID, seatID).Scan)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return seat, nil
}

// ListByTrainCar returns all seats of one car ordered by seat number.
func (r *SeatRepo) ListByTrainCar(ctx context.Context, trainNumber string, carNumber uint32) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats
	           WHERE train_number = ? AND car_number = ?
	           ORDER BY seat_number`
	return r.querySeats(ctx, q, trainNumber, carNumber)
}

// ListAvailableByTrain returns every available seat on a train.
func (r *SeatRepo) ListAvailableByTrain(ctx context.Context, trainNumber string) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats
	           WHERE train_number = ? AND status = ?
	           ORDER BY car_number, seat_number`
	return r.querySeats(ctx, q, trainNumber, model.SeatAvailable)
}

// ListPriorityByTrain returns the priority seats of a train regardless
// of status, for the priority-seat map view.
func (r *SeatRepo) ListPriorityByTrain(ctx context.Context, trainNumber string) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats
	           WHERE train_number = ? AND seat_type = ?
	           ORDER BY car_number, seat_number`
	return r.querySeats(ctx, q, trainNumber, model.SeatTypePriority)
}

func (r *SeatRepo) querySeats(ctx context.Context, query string, args ...interface{}) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows.Scan)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CreateBulk inserts multiple seat rows in one statement.  Existing
// rows are left untouched (INSERT IGNORE) so provisioning the same
// train twice is harmless.  Passing an empty slice has no effect and
// returns zero.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) (int64, error) {
	if len(seats) == 0 {
		return 0, nil
	}
	query := `INSERT IGNORE INTO seats (id, train_number, car_number, seat_number, seat_type, status, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*7)
	now := time.Now().UTC()
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.ID, s.TrainNumber, s.CarNumber, s.SeatNumber, s.SeatType, s.Status, now)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
