package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/gastrovia/ticketing/internal/model"
)

// TableRepo provides CRUD operations for event tables and their seats.
// Seat claims are never written here; that is the ClaimRepo's job.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// GetTable retrieves a table with its seats ordered by seat index.
// ErrTableNotFound is returned when no such table exists.
func (r *TableRepo) GetTable(ctx context.Context, id string) (*model.EventTable, error) {
	const q = `SELECT id, event_id, name, x, y, rotation, capacity, seat_price, status, auto_generated
	           FROM event_tables WHERE id = ?`
	var t model.EventTable
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.EventID, &t.Name, &t.X, &t.Y, &t.Rotation,
		&t.Capacity, &t.SeatPrice, &t.Status, &t.AutoGenerated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	seats, err := r.seatsForTables(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Seats = seats[t.ID]
	return &t, nil
}

// ListTables returns all tables of an event, each with its seats,
// ordered by table name.
func (r *TableRepo) ListTables(ctx context.Context, eventID string) ([]model.EventTable, error) {
	const q = `SELECT id, event_id, name, x, y, rotation, capacity, seat_price, status, auto_generated
	           FROM event_tables WHERE event_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]model.EventTable, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var t model.EventTable
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.X, &t.Y, &t.Rotation,
			&t.Capacity, &t.SeatPrice, &t.Status, &t.AutoGenerated,
		); err != nil {
			return nil, err
		}
		tables = append(tables, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return tables, nil
	}
	seats, err := r.seatsForTables(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		tables[i].Seats = seats[tables[i].ID]
	}
	return tables, nil
}

// seatsForTables loads the seats of all given tables in one query,
// keyed by table id and ordered by seat index.
func (r *TableRepo) seatsForTables(ctx context.Context, tableIDs []string) (map[string][]model.TableSeat, error) {
	placeholders := make([]string, len(tableIDs))
	args := make([]interface{}, len(tableIDs))
	for i, id := range tableIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id, table_id, seat_index, price, reservation_id
	      FROM table_seats
	      WHERE table_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY table_id, seat_index`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.TableSeat)
	for rows.Next() {
		var s model.TableSeat
		var resID sql.NullString
		if err := rows.Scan(&s.ID, &s.TableID, &s.Index, &s.Price, &resID); err != nil {
			return nil, err
		}
		if resID.Valid {
			rid := resID.String
			s.ReservationID = &rid
		}
		out[s.TableID] = append(out[s.TableID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTable inserts a table and its seats.  Missing ids are generated.
// The insert runs in a transaction so a table never appears without its
// seats.
func (r *TableRepo) CreateTable(ctx context.Context, t *model.EventTable) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.TableStatusAvailable
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO event_tables (id, event_id, name, x, y, rotation, capacity, seat_price, status, auto_generated)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		t.ID, t.EventID, t.Name, t.X, t.Y, t.Rotation,
		t.Capacity, t.SeatPrice, t.Status, t.AutoGenerated,
	); err != nil {
		return err
	}
	if len(t.Seats) > 0 {
		if err := insertTableSeatsTx(ctx, tx, t.ID, t.Seats); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertTableSeatsTx bulk-inserts table seats within a transaction,
// generating ids for seats that lack one.
func insertTableSeatsTx(ctx context.Context, tx *sql.Tx, tableID string, seats []model.TableSeat) error {
	query := `INSERT INTO table_seats (id, table_id, seat_index, price) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.NewString()
		}
		seats[i].TableID = tableID
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, seats[i].ID, tableID, seats[i].Index, seats[i].Price)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateTable persists the table's mutable fields (name, position,
// capacity, seat price, status).  Seats are managed separately through
// AddTableSeats / RemoveTableSeats.
func (r *TableRepo) UpdateTable(ctx context.Context, t *model.EventTable) error {
	const q = `UPDATE event_tables
	           SET name = ?, x = ?, y = ?, rotation = ?, capacity = ?, seat_price = ?, status = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.X, t.Y, t.Rotation, t.Capacity, t.SeatPrice, t.Status, t.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// AddTableSeats appends seats to existing tables in a single statement.
func (r *TableRepo) AddTableSeats(ctx context.Context, seats []model.TableSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO table_seats (id, table_id, seat_index, price) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.NewString()
		}
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, seats[i].ID, seats[i].TableID, seats[i].Index, seats[i].Price)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// RemoveTableSeats deletes the given seats, refusing to touch any that
// are claimed.  ErrConflict is returned when a claimed seat was named;
// the capacity policy should have excluded them already.
func (r *TableRepo) RemoveTableSeats(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `DELETE FROM table_seats WHERE reservation_id IS NULL AND id IN (` + strings.Join(placeholders, ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != int64(len(ids)) {
		return ErrConflict
	}
	return nil
}

// DeleteTable removes a table and its seats.  The delete aborts with
// ErrConflict if any seat is claimed, inside one transaction so a
// concurrent confirmation cannot slip between the check and the delete.
func (r *TableRepo) DeleteTable(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var claimed int
	const checkQ = `SELECT COUNT(*) FROM table_seats WHERE table_id = ? AND reservation_id IS NOT NULL`
	if err := tx.QueryRowContext(ctx, checkQ, id).Scan(&claimed); err != nil {
		return err
	}
	if claimed > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_seats WHERE table_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM event_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetTableSeatsByIDs retrieves table seats joined with their table's
// event id and name.  Missing ids are absent from the result.
func (r *TableRepo) GetTableSeatsByIDs(ctx context.Context, ids []string) ([]TableSeatDetail, error) {
	if len(ids) == 0 {
		return []TableSeatDetail{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ts.id, ts.table_id, ts.seat_index, ts.price, ts.reservation_id, t.event_id, t.name
	      FROM table_seats ts
	      JOIN event_tables t ON t.id = ts.table_id
	      WHERE ts.id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]TableSeatDetail, 0, len(ids))
	for rows.Next() {
		var d TableSeatDetail
		var resID sql.NullString
		if err := rows.Scan(&d.ID, &d.TableID, &d.Index, &d.Price, &resID, &d.TableEventID, &d.TableName); err != nil {
			return nil, err
		}
		if resID.Valid {
			rid := resID.String
			d.ReservationID = &rid
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
