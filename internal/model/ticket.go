package model

import "time"

// Ticket status values.  Transitions are monotonic:
// PENDING -> PAID -> USED, or -> CANCELLED from PENDING/PAID only.
const (
	TicketPending   = "PENDING"
	TicketPaid      = "PAID"
	TicketCancelled = "CANCELLED"
	TicketUsed      = "USED"
)

// Ticket is the permanent record of a claimed seat.  Exactly one of
// SeatID and TableSeatID is set.  The QR code is issued once at
// confirmation time and looked up verbatim at the door.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  UserID       – ticket owner.
//  EventID      – event the ticket admits to.
//  SeatID       – grid seat reference (nil for table-seat tickets).
//  TableSeatID  – table seat reference (nil for grid tickets).
//  Status       – PENDING, PAID, CANCELLED or USED.
//  QRCode       – opaque transport-safe payload handed to the buyer.
//  PaymentRef   – external payment intent the ticket was paid under.
//  PurchaseDate – when the ticket was issued.
//  FoodItems    – food line items attached to this seat, when loaded.
type Ticket struct {
	ID           string       `json:"id"`                     // tickets.id
	UserID       string       `json:"user_id"`                // tickets.user_id
	EventID      string       `json:"event_id"`               // tickets.event_id
	SeatID       *string      `json:"seat_id,omitempty"`      // tickets.seat_id (nullable)
	TableSeatID  *string      `json:"table_seat_id,omitempty"` // tickets.table_seat_id (nullable)
	Status       string       `json:"status"`                 // tickets.status
	QRCode       string       `json:"qr_code"`                // tickets.qr_code
	PaymentRef   string       `json:"payment_ref"`            // tickets.payment_ref
	PurchaseDate time.Time    `json:"purchase_date"`          // tickets.purchase_date
	FoodItems    []TicketFood `json:"food_items,omitempty"`
}

// TicketFood attaches a food line item to the ticket of the seat it was
// ordered for.  Status tracks kitchen fulfilment and starts PENDING.
type TicketFood struct {
	ID         string `json:"id"`           // ticket_food.id
	TicketID   string `json:"ticket_id"`    // ticket_food.ticket_id
	FoodItemID string `json:"food_item_id"` // ticket_food.food_item_id
	Quantity   int    `json:"quantity"`     // ticket_food.quantity
	Status     string `json:"status"`       // ticket_food.status
}
