package repository

import (
	"context"
	"time"

	"github.com/gastrovia/ticketing/internal/model"
)

// The interfaces below describe what the service layer needs from the
// inventory store.  The MySQL repositories in this package satisfy them
// in production; MemoryStore satisfies all of them for tests.

// EventStore reads event records and their free grid seats.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListAvailableSeats(ctx context.Context, eventID string) ([]model.Seat, error)
}

// SeatStore reads grid seats by id.
type SeatStore interface {
	GetSeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error)
}

// TableSeatDetail is a table seat joined with the owning table's
// identity, needed to validate event membership and to build QR
// payloads without a second lookup.
type TableSeatDetail struct {
	model.TableSeat
	TableEventID string
	TableName    string
}

// TableStore manages event tables and their seats.
type TableStore interface {
	GetTable(ctx context.Context, id string) (*model.EventTable, error)
	ListTables(ctx context.Context, eventID string) ([]model.EventTable, error)
	CreateTable(ctx context.Context, t *model.EventTable) error
	UpdateTable(ctx context.Context, t *model.EventTable) error
	AddTableSeats(ctx context.Context, seats []model.TableSeat) error
	RemoveTableSeats(ctx context.Context, ids []string) error
	DeleteTable(ctx context.Context, id string) error
	GetTableSeatsByIDs(ctx context.Context, ids []string) ([]TableSeatDetail, error)
}

// ReservationStore manages reservation holds.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)

	// ExpirePendingReservations transitions every PENDING reservation
	// whose expiry has passed to EXPIRED and reports how many rows
	// changed.  Holds are advisory, so this never touches seat state.
	ExpirePendingReservations(ctx context.Context, now time.Time) (int64, error)
}

// OrderStore manages food orders attached to reservations.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	MarkOrderProcessing(ctx context.Context, id, intentID string) error
}

// FoodStore reads the menu catalog.
type FoodStore interface {
	GetFoodItemsByIDs(ctx context.Context, ids []string) ([]model.FoodItem, error)
}

// TicketStore reads issued tickets and performs the claim-once
// PAID -> USED transition.
type TicketStore interface {
	ListTicketsByPaymentRef(ctx context.Context, paymentRef string) ([]model.Ticket, error)
	GetTicketByQR(ctx context.Context, qrCode string) (*model.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error)

	// MarkTicketUsed conditionally transitions the ticket from PAID to
	// USED and reports whether this call won the transition.  A false
	// return with nil error means a concurrent scan got there first or
	// the ticket was not in PAID state.
	MarkTicketUsed(ctx context.Context, id string) (bool, error)
}

// FoodDraft is one food line to attach to a ticket being issued.
type FoodDraft struct {
	FoodItemID string
	Quantity   int
}

// TicketDraft describes one ticket to create inside a claim
// transaction.  Exactly one of SeatID / TableSeatID is set.
type TicketDraft struct {
	UserID      string
	EventID     string
	SeatID      *string
	TableSeatID *string
	QRCode      string
	PaymentRef  string
	Food        []FoodDraft
}

// GridClaim is the unit of work for confirming a grid-seat purchase:
// conditionally occupy every seat in SeatIDs and issue one ticket per
// seat, atomically.
type GridClaim struct {
	SeatIDs []string
	Tickets []TicketDraft
}

// TableClaim is the unit of work for confirming a table-seat purchase:
// insert the CONFIRMED reservation, conditionally claim every seat in
// SeatIDs for it, mark the table occupied, and issue tickets.
type TableClaim struct {
	Reservation model.Reservation
	TableID     string
	SeatIDs     []string
	Tickets     []TicketDraft
}

// ClaimStore owns the confirmation transactions.  Every method is a
// single atomic unit: the conditional update's affected-row count is
// compared against the requested seat count and the whole transaction
// aborts with ErrConflict on mismatch, leaving no partial state.
type ClaimStore interface {
	ConfirmGridClaim(ctx context.Context, claim GridClaim) ([]model.Ticket, error)
	ConfirmTableClaim(ctx context.Context, claim TableClaim) ([]model.Ticket, error)

	// ClaimReservationSeats finalises an order-based purchase: claim
	// the reservation's requested seats, mark the order PAID and the
	// reservation CONFIRMED, atomically.
	ClaimReservationSeats(ctx context.Context, orderID, reservationID string, seatIDs []string) error
}
