// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketsIssuedEvent is published after a confirmation transaction has
// committed. It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type TicketsIssuedEvent struct {
	PaymentRef  string   `json:"payment_ref"`
	UserID      string   `json:"user_id"`
	EventID     string   `json:"event_id"`
	TicketIDs   []string `json:"ticket_ids"`
	SeatCount   int      `json:"seat_count"`
	AmountCents int64    `json:"amount_cents"`
	IssuedAt    string   `json:"issued_at"`
}
