package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gastrovia/ticketing/internal/model"
)

// ReservationRepo provides CRUD operations for reservation holds.
// Holds are advisory: creating one never writes to seat rows, and
// expiring one only flips the reservation's own status.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateReservation inserts a reservation row, generating an id when
// absent.  The requested seat id list is serialized as a JSON array.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	seatIDs, err := marshalSeatIDs(res.RequestedSeatIDs)
	if err != nil {
		return err
	}
	const q = `INSERT INTO reservations
	           (id, user_id, event_id, event_table_id, requested_seat_ids, party_size, status, datetime, notes, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		res.ID, res.UserID, res.EventID, res.EventTableID, seatIDs,
		res.PartySize, res.Status, res.Datetime.UTC(), res.Notes, res.ExpiresAt.UTC(),
	)
	return err
}

// GetReservation retrieves a reservation by id.  ErrReservationNotFound
// is returned when no such reservation exists.
func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, user_id, event_id, event_table_id, requested_seat_ids, party_size, status, datetime, notes, expires_at, created_at
	           FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// ListReservationsByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, event_id, event_table_id, requested_seat_ids, party_size, status, datetime, notes, expires_at, created_at
	           FROM reservations WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpirePendingReservations flips lapsed PENDING holds to EXPIRED in a
// single statement and returns the number of rows changed.
func (r *ReservationRepo) ExpirePendingReservations(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE reservations SET status = ? WHERE status = ? AND expires_at < ?`
	res, err := r.db.ExecContext(ctx, q, model.ReservationExpired, model.ReservationPending, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var tableID, notes, seatIDs sql.NullString
	if err := row.Scan(
		&res.ID, &res.UserID, &res.EventID, &tableID, &seatIDs,
		&res.PartySize, &res.Status, &res.Datetime, &notes, &res.ExpiresAt, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	if tableID.Valid {
		tid := tableID.String
		res.EventTableID = &tid
	}
	if notes.Valid {
		res.Notes = notes.String
	}
	if seatIDs.Valid && seatIDs.String != "" {
		if err := json.Unmarshal([]byte(seatIDs.String), &res.RequestedSeatIDs); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func marshalSeatIDs(ids []string) (sql.NullString, error) {
	if len(ids) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
