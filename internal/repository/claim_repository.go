package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gastrovia/ticketing/internal/model"
)

// ClaimRepo owns the confirmation transactions.  Seat claims rely on a
// single conditional UPDATE per seat batch whose affected-row count is
// compared against the requested seat count; any mismatch aborts the
// whole transaction with ErrConflict.  The database serializes the
// conditional update, so no in-process locking is needed: among N
// concurrent confirmations over overlapping seats, exactly one writes
// each contested row.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo returns a new ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

// ConfirmGridClaim atomically occupies the claimed grid seats and
// issues one ticket per seat.  ErrConflict is returned, with no state
// change, when any seat was already occupied.
func (r *ClaimRepo) ConfirmGridClaim(ctx context.Context, claim GridClaim) ([]model.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	placeholders := make([]string, len(claim.SeatIDs))
	args := make([]interface{}, len(claim.SeatIDs))
	for i, id := range claim.SeatIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	// The conditional write: only rows still free are touched.
	q := `UPDATE seats SET is_occupied = 1
	      WHERE is_occupied = 0 AND id IN (` + strings.Join(placeholders, ",") + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n != int64(len(claim.SeatIDs)) {
		return nil, ErrConflict
	}

	tickets, err := insertTicketsTx(ctx, tx, claim.Tickets)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return tickets, nil
}

// ConfirmTableClaim atomically inserts the CONFIRMED reservation,
// claims the table seats for it, marks the table occupied and issues
// tickets.  ErrConflict is returned, with no state change, when any
// seat was already claimed.
func (r *ClaimRepo) ConfirmTableClaim(ctx context.Context, claim TableClaim) ([]model.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res := claim.Reservation
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	seatJSON, err := json.Marshal(claim.SeatIDs)
	if err != nil {
		return nil, err
	}
	const insRes = `INSERT INTO reservations
	                (id, user_id, event_id, event_table_id, requested_seat_ids, party_size, status, datetime, notes, expires_at)
	                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insRes,
		res.ID, res.UserID, res.EventID, res.EventTableID, string(seatJSON),
		res.PartySize, model.ReservationConfirmed, res.Datetime.UTC(), res.Notes, res.ExpiresAt.UTC(),
	); err != nil {
		return nil, err
	}

	if err := claimTableSeatsTx(ctx, tx, claim.SeatIDs, res.ID); err != nil {
		return nil, err
	}
	const occQ = `UPDATE event_tables SET status = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, occQ, model.TableStatusOccupied, claim.TableID); err != nil {
		return nil, err
	}

	tickets, err := insertTicketsTx(ctx, tx, claim.Tickets)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return tickets, nil
}

// ClaimReservationSeats finalises an order-based purchase: the
// reservation's requested seats are claimed conditionally, the order
// moves to PAID and the reservation to CONFIRMED, all in one
// transaction.
func (r *ClaimRepo) ClaimReservationSeats(ctx context.Context, orderID, reservationID string, seatIDs []string) error {
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

	if len(seatIDs) > 0 {
		if err := claimTableSeatsTx(ctx, tx, seatIDs, reservationID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, model.OrderPaid, orderID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, model.ReservationConfirmed, reservationID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// claimTableSeatsTx performs the conditional claim and count check for
// table seats within an existing transaction.
func claimTableSeatsTx(ctx context.Context, tx *sql.Tx, seatIDs []string, reservationID string) error {
	placeholders := make([]string, len(seatIDs))
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, reservationID)
	for i, id := range seatIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `UPDATE table_seats SET reservation_id = ?
	      WHERE reservation_id IS NULL AND id IN (` + strings.Join(placeholders, ",") + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return ErrConflict
	}
	return nil
}

// insertTicketsTx creates the tickets and their food lines within an
// existing transaction and returns the issued records.
func insertTicketsTx(ctx context.Context, tx *sql.Tx, drafts []TicketDraft) ([]model.Ticket, error) {
	now := time.Now().UTC()
	tickets := make([]model.Ticket, 0, len(drafts))
	const insTicket = `INSERT INTO tickets (id, user_id, event_id, seat_id, table_seat_id, status, qr_code, payment_ref, purchase_date)
	                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	const insFood = `INSERT INTO ticket_food (id, ticket_id, food_item_id, quantity, status) VALUES (?, ?, ?, ?, ?)`
	for _, d := range drafts {
		t := model.Ticket{
			ID:           uuid.NewString(),
			UserID:       d.UserID,
			EventID:      d.EventID,
			SeatID:       d.SeatID,
			TableSeatID:  d.TableSeatID,
			Status:       model.TicketPaid,
			QRCode:       d.QRCode,
			PaymentRef:   d.PaymentRef,
			PurchaseDate: now,
		}
		if _, err := tx.ExecContext(ctx, insTicket,
			t.ID, t.UserID, t.EventID, t.SeatID, t.TableSeatID,
			t.Status, t.QRCode, t.PaymentRef, t.PurchaseDate,
		); err != nil {
			return nil, err
		}
		for _, f := range d.Food {
			tf := model.TicketFood{
				ID:         uuid.NewString(),
				TicketID:   t.ID,
				FoodItemID: f.FoodItemID,
				Quantity:   f.Quantity,
				Status:     "PENDING",
			}
			if _, err := tx.ExecContext(ctx, insFood, tf.ID, tf.TicketID, tf.FoodItemID, tf.Quantity, tf.Status); err != nil {
				return nil, err
			}
			t.FoodItems = append(t.FoodItems, tf)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
