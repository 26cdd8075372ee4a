package model

import "github.com/shopspring/decimal"

// FoodItem is a read-only view of the menu catalog.  Menu management is
// an external collaborator; the core only reads prices when freezing an
// order or a payment intent.
type FoodItem struct {
	ID       string          `json:"id"`       // food_items.id
	Category string          `json:"category"` // food_items.category
	Name     string          `json:"name"`     // food_items.name
	Price    decimal.Decimal `json:"price"`    // food_items.price
}

// FoodOrder groups the food lines a buyer attached to one seat of a
// ticket purchase.  It is frozen into the payment intent metadata at
// intent-creation time and recovered verbatim at confirmation.
type FoodOrder struct {
	SeatID    string     `json:"seatId"`
	FoodItems []FoodLine `json:"foodItems"`
}

// FoodLine is a quantity of one menu item inside a FoodOrder.
type FoodLine struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"quantity"`
}
