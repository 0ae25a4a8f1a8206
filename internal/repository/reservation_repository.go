package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iamjiwoo/subway-priority-seat/internal/model"
)

// ReservationRepo provides persistence for reservations.  Reservation
// rows are append-then-update: a row is inserted with status
// "reserved" and later flipped to "cancelled" exactly once.  Rows are
// never deleted; cancelled reservations stay as history.  All
// timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a new reservation row.  The caller supplies the
// generated ID; ReservedAt and UpdatedAt are populated on the record.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	now := time.Now().UTC()
	res.ReservedAt = now
	res.UpdatedAt = now
	const q = `INSERT INTO reservations (id, user_id, seat_id, status, reserved_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, res.ID, res.UserID, res.SeatID, res.Status, res.ReservedAt, res.UpdatedAt)
	return err
}

// GetByID returns the reservation with the given identifier or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, user_id, seat_id, status, reserved_at, updated_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.SeatID, &res.Status, &res.ReservedAt, &res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CompareAndSetStatus transitions a reservation from expectedStatus to
// newStatus.  The reserved→cancelled transition must happen exactly
// once even when two cancels race on the same reservation, so the
// write carries the same guard as seat writes: it only lands while the
// row is still in expectedStatus.  Zero affected rows on an existing
// reservation means another writer already moved it, reported as
// ErrConflict.
func (r *ReservationRepo) CompareAndSetStatus(ctx context.Context, id, expectedStatus, newStatus string) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, newStatus, time.Now().UTC(), id, expectedStatus)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// ListByUser returns all reservations made by the given user, newest
// first.  When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, seat_id, status, reserved_at, updated_at
	           FROM reservations WHERE user_id = ?
	           ORDER BY reserved_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.SeatID, &res.Status, &res.ReservedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
