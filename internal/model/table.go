package model

import "github.com/shopspring/decimal"

// Table status values.  A table becomes OCCUPIED when any of its seats
// is claimed by a paid reservation.
const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
)

// Capacity ceilings.  Auto-generated tables are part of a grid layout
// and stay small; manually placed tables may go up to the
// administrative ceiling.
const (
	MaxAutoTableCapacity   = 6
	MaxManualTableCapacity = 8
)

// EventTable is a mesa-style seating unit placed on an event's floor
// plan.  The position fields (X, Y, Rotation) are opaque to the
// reservation core and only round-trip to the layout editor.
//
// Fields:
//  ID            – primary key identifier (UUID).
//  EventID       – owning event.
//  Name          – display name (e.g. "Mesa 3").
//  X, Y          – floor plan coordinates.
//  Rotation      – floor plan rotation in degrees.
//  Capacity      – number of seats, bounded per the ceilings above.
//  SeatPrice     – default per-seat price in currency units.
//  Status        – AVAILABLE or OCCUPIED.
//  AutoGenerated – true when created by the grid generator.
//  Seats         – the table's seats, when loaded.
type EventTable struct {
	ID            string          `json:"id"`             // event_tables.id
	EventID       string          `json:"event_id"`       // event_tables.event_id
	Name          string          `json:"name"`           // event_tables.name
	X             float64         `json:"x"`              // event_tables.x
	Y             float64         `json:"y"`              // event_tables.y
	Rotation      float64         `json:"rotation"`       // event_tables.rotation
	Capacity      int             `json:"capacity"`       // event_tables.capacity
	SeatPrice     decimal.Decimal `json:"seat_price"`     // event_tables.seat_price
	Status        string          `json:"status"`         // event_tables.status
	AutoGenerated bool            `json:"auto_generated"` // event_tables.auto_generated
	Seats         []TableSeat     `json:"seats,omitempty"`
}

// TableSeat is a single seat attached to a table.  It is claimed iff
// ReservationID is non-nil; the claim is written exactly once by the
// confirmation transaction's conditional update.
//
// Fields:
//  ID            – primary key identifier (UUID).
//  TableID       – owning table.
//  Index         – ordinal position at the table (1-based).
//  Price         – per-seat price in currency units.
//  ReservationID – claiming reservation, nil while the seat is free.
type TableSeat struct {
	ID            string          `json:"id"`             // table_seats.id
	TableID       string          `json:"table_id"`       // table_seats.table_id
	Index         int             `json:"index"`          // table_seats.seat_index
	Price         decimal.Decimal `json:"price"`          // table_seats.price
	ReservationID *string         `json:"reservation_id"` // table_seats.reservation_id (nullable)
}

// Claimed reports whether the seat has been permanently assigned.
func (s TableSeat) Claimed() bool { return s.ReservationID != nil }
