package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gastrovia/ticketing/internal/model"
)

// FoodRepo reads the menu catalog.  The catalog is owned by an external
// menu service; the core only looks prices up when freezing an order or
// a payment intent.
type FoodRepo struct {
	db *sql.DB
}

// NewFoodRepo returns a new FoodRepo bound to the given database.
func NewFoodRepo(db *sql.DB) *FoodRepo { return &FoodRepo{db: db} }

// GetFoodItemsByIDs retrieves the given menu items in one query.
// Missing ids are absent from the result.
func (r *FoodRepo) GetFoodItemsByIDs(ctx context.Context, ids []string) ([]model.FoodItem, error) {
	if len(ids) == 0 {
		return []model.FoodItem{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id, category, name, price FROM food_items WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FoodItem, 0, len(ids))
	for rows.Next() {
		var it model.FoodItem
		if err := rows.Scan(&it.ID, &it.Category, &it.Name, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
