package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gastrovia/ticketing/internal/model"
)

// SeatRepo provides read access to grid seats.  Seats are only ever
// mutated through the claim transaction in ClaimRepo.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetSeatsByIDs retrieves the given seats in a single query.  Missing
// ids are simply absent from the result; callers compare lengths to
// detect them.  Passing an empty slice returns an empty result.
func (r *SeatRepo) GetSeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id, event_id, row_num, col_num, is_occupied
	      FROM seats WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]model.Seat, 0, len(ids))
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.Row, &s.Column, &s.IsOccupied); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
