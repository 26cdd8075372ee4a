package model

import "time"

// Reservation status values.  PENDING holds are advisory only: they
// never mutate seat claim state, so the expiry sweep touches nothing
// but the reservation row itself.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationExpired   = "EXPIRED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is a time-boxed hold on a set of intended seats, created
// before payment and transitioned to CONFIRMED by the confirmation
// engine or to EXPIRED by the sweeper.
//
// Fields:
//  ID               – primary key identifier (UUID).
//  UserID           – user who requested the hold.
//  EventID          – target event.
//  EventTableID     – target table, when the hold is table-based.
//  RequestedSeatIDs – seat ids frozen at hold time (JSON array in DB).
//  PartySize        – number of guests.
//  Status           – PENDING, CONFIRMED, EXPIRED or CANCELLED.
//  Datetime         – requested visit time.
//  Notes            – free-form notes from the buyer.
//  ExpiresAt        – when a PENDING hold lapses.
//  CreatedAt        – creation timestamp.
type Reservation struct {
	ID               string    `json:"id"`                       // reservations.id
	UserID           string    `json:"user_id"`                  // reservations.user_id
	EventID          string    `json:"event_id"`                 // reservations.event_id
	EventTableID     *string   `json:"event_table_id,omitempty"` // reservations.event_table_id (nullable)
	RequestedSeatIDs []string  `json:"requested_seat_ids"`       // reservations.requested_seat_ids
	PartySize        int       `json:"party_size"`               // reservations.party_size
	Status           string    `json:"status"`                   // reservations.status
	Datetime         time.Time `json:"datetime"`                 // reservations.datetime
	Notes            string    `json:"notes,omitempty"`          // reservations.notes
	ExpiresAt        time.Time `json:"expires_at"`               // reservations.expires_at
	CreatedAt        time.Time `json:"created_at"`               // reservations.created_at
}
