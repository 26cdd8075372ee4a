package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a scheduled event whose seating inventory is sold
// through this service.  Only the fields the reservation core depends on
// are modelled here; general event management lives in an external
// service.
//
// Fields:
//  ID          – primary key identifier (UUID).
//  Name        – display name.
//  Date        – when the event takes place.
//  TicketPrice – base admission price per seat, in currency units.
//  TotalSeats  – number of grid seats generated for the event.
type Event struct {
	ID          string          `json:"id"`           // events.id
	Name        string          `json:"name"`         // events.name
	Date        time.Time       `json:"date"`         // events.date
	TicketPrice decimal.Decimal `json:"ticket_price"` // events.ticket_price
	TotalSeats  int             `json:"total_seats"`  // events.total_seats
}
