package model

// Order status values.
const (
	OrderCreated    = "CREATED"
	OrderProcessing = "PROCESSING"
	OrderPaid       = "PAID"
)

// Order aggregates food line items purchased alongside a reservation.
// TotalCents equals the sum of its line items at creation time and is
// never recomputed afterwards.
//
// Fields:
//  ID              – primary key identifier (UUID).
//  ReservationID   – owning reservation; nil for direct ticket purchases.
//  TotalCents      – total amount in minor currency units.
//  Status          – CREATED, PROCESSING or PAID.
//  PaymentIntentID – external payment intent reference, once created.
//  Items           – the order's line items, when loaded.
type Order struct {
	ID              string      `json:"id"`                       // orders.id
	ReservationID   *string     `json:"reservation_id,omitempty"` // orders.reservation_id (nullable)
	TotalCents      int64       `json:"total_cents"`              // orders.total_cents
	Status          string      `json:"status"`                   // orders.status
	PaymentIntentID *string     `json:"payment_intent_id,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem is a single priced line within an order.  PriceCents is the
// catalog price captured at order creation.
type OrderItem struct {
	ID         string `json:"id"`           // order_items.id
	OrderID    string `json:"order_id"`     // order_items.order_id
	FoodItemID string `json:"food_item_id"` // order_items.food_item_id
	Quantity   int    `json:"quantity"`     // order_items.quantity
	PriceCents int64  `json:"price_cents"`  // order_items.price_cents
}
