package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gastrovia/ticketing/internal/model"
)

// TicketRepo provides read access to issued tickets plus the claim-once
// PAID -> USED transition used by the verifier.  Ticket creation only
// happens inside ClaimRepo's confirmation transactions.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, user_id, event_id, seat_id, table_seat_id, status, qr_code, payment_ref, purchase_date`

// ListTicketsByPaymentRef returns every ticket issued under the given
// payment intent, ordered by purchase date.  This is the idempotency
// lookup for repeated confirmation calls.
func (r *TicketRepo) ListTicketsByPaymentRef(ctx context.Context, paymentRef string) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE payment_ref = ? ORDER BY purchase_date, id`
	return r.listTickets(ctx, q, paymentRef)
}

// ListTicketsByUser returns the user's tickets, newest first.
func (r *TicketRepo) ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = ? ORDER BY purchase_date DESC`
	return r.listTickets(ctx, q, userID)
}

// GetTicketByQR retrieves a ticket by its stored QR code, including its
// food line items.  ErrTicketNotFound is returned when no ticket
// carries the given code.
func (r *TicketRepo) GetTicketByQR(ctx context.Context, qrCode string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE qr_code = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, qrCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	const foodQ = `SELECT id, ticket_id, food_item_id, quantity, status FROM ticket_food WHERE ticket_id = ?`
	rows, err := r.db.QueryContext(ctx, foodQ, t.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var f model.TicketFood
		if err := rows.Scan(&f.ID, &f.TicketID, &f.FoodItemID, &f.Quantity, &f.Status); err != nil {
			return nil, err
		}
		t.FoodItems = append(t.FoodItems, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkTicketUsed conditionally transitions a ticket from PAID to USED.
// The conditional update is the claim-once mechanism: when two scans
// race, only one sees an affected row and reports true.
func (r *TicketRepo) MarkTicketUsed(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE tickets SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.TicketUsed, id, model.TicketPaid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *TicketRepo) listTickets(ctx context.Context, q string, arg interface{}) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var seatID, tableSeatID sql.NullString
	if err := row.Scan(
		&t.ID, &t.UserID, &t.EventID, &seatID, &tableSeatID,
		&t.Status, &t.QRCode, &t.PaymentRef, &t.PurchaseDate,
	); err != nil {
		return nil, err
	}
	if seatID.Valid {
		sid := seatID.String
		t.SeatID = &sid
	}
	if tableSeatID.Valid {
		tsid := tableSeatID.String
		t.TableSeatID = &tsid
	}
	return &t, nil
}
