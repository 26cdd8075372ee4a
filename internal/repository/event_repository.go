package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gastrovia/ticketing/internal/model"
)

// EventRepo provides read access to events and their grid seats.  Event
// management itself is handled by an external service; the reservation
// core only needs the capacity and pricing fields.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetEvent retrieves an event by id.  ErrEventNotFound is returned when
// no such event exists.
func (r *EventRepo) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	const q = `SELECT id, name, date, ticket_price, total_seats FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.Date, &e.TicketPrice, &e.TotalSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListAvailableSeats returns all unoccupied grid seats of an event,
// ordered by row then column for deterministic output.
func (r *EventRepo) ListAvailableSeats(ctx context.Context, eventID string) ([]model.Seat, error) {
	const q = `SELECT id, event_id, row_num, col_num, is_occupied
	           FROM seats
	           WHERE event_id = ? AND is_occupied = 0
	           ORDER BY row_num, col_num`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]model.Seat, 0)
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
