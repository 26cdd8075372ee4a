package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/gastrovia/ticketing/internal/model"
)

// OrderRepo provides persistence for food orders and their line items.
// An order's total is written once at creation and never recomputed.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateOrder inserts the order and all of its items in one
// transaction, generating ids where absent.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
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

	const q = `INSERT INTO orders (id, reservation_id, total_cents, status) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, o.ID, o.ReservationID, o.TotalCents, o.Status); err != nil {
		return err
	}
	if len(o.Items) > 0 {
		query := `INSERT INTO order_items (id, order_id, food_item_id, quantity, price_cents) VALUES `
		args := make([]interface{}, 0, len(o.Items)*5)
		for i := range o.Items {
			if o.Items[i].ID == "" {
				o.Items[i].ID = uuid.NewString()
			}
			o.Items[i].OrderID = o.ID
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, o.Items[i].ID, o.ID, o.Items[i].FoodItemID, o.Items[i].Quantity, o.Items[i].PriceCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetOrder retrieves an order with its items.  ErrOrderNotFound is
// returned when no such order exists.
func (r *OrderRepo) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT id, reservation_id, total_cents, status, payment_intent_id FROM orders WHERE id = ?`
	var o model.Order
	var resID, intentID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &resID, &o.TotalCents, &o.Status, &intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if resID.Valid {
		rid := resID.String
		o.ReservationID = &rid
	}
	if intentID.Valid {
		iid := intentID.String
		o.PaymentIntentID = &iid
	}

	const itemsQ = `SELECT id, order_id, food_item_id, quantity, price_cents FROM order_items WHERE order_id = ?`
	rows, err := r.db.QueryContext(ctx, itemsQ, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.FoodItemID, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkOrderProcessing records the payment intent reference and moves
// the order to PROCESSING.
func (r *OrderRepo) MarkOrderProcessing(ctx context.Context, id, intentID string) error {
	const q = `UPDATE orders SET status = ?, payment_intent_id = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, model.OrderProcessing, intentID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
