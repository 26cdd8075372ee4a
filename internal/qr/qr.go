// Package qr encodes and decodes the self-describing ticket payload
// embedded in each issued QR code.  The wire format is base64 (URL-safe,
// unpadded) over a JSON document so that scanners can verify a ticket
// without any out-of-band context.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ticket type discriminators carried in the payload.
const (
	TypeSeat      = "seat"
	TypeTableSeat = "table_seat"
)

// ErrInvalidPayload is returned by Decode when the input is not a
// well-formed encoded payload.  Callers should treat it as "no such
// ticket" rather than a server fault.
var ErrInvalidPayload = errors.New("invalid qr payload")

// Payload is the structure embedded in a ticket's QR code.  All fields
// are frozen at issuance time.  OpaqueID is globally unique per
// issuance and doubles as a tamper check against the stored ticket.
type Payload struct {
	OpaqueID   string `json:"id"`
	TicketType string `json:"type"` // seat | table_seat
	EventID    string `json:"eventId"`
	UserID     string `json:"userId"`

	// Grid seat reference (TicketType == seat).
	SeatID string `json:"seatId,omitempty"`
	Row    int    `json:"row,omitempty"`
	Column int    `json:"column,omitempty"`

	// Table seat reference (TicketType == table_seat).
	TableID     string `json:"tableId,omitempty"`
	TableName   string `json:"tableName,omitempty"`
	SeatIndex   int    `json:"seatIndex,omitempty"`
	TableSeatID string `json:"tableSeatId,omitempty"`

	CreatedAt  string `json:"createdAt"`
	PaymentRef string `json:"paymentRef"`
}

// NewPayload returns a Payload with a fresh opaque id and the creation
// timestamp set to the current UTC time.
func NewPayload(ticketType, eventID, userID, paymentRef string) Payload {
	return Payload{
		OpaqueID:   uuid.NewString(),
		TicketType: ticketType,
		EventID:    eventID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		PaymentRef: paymentRef,
	}
}

// Encode serialises the payload to its transport-safe string form.
func Encode(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses an encoded payload.  Garbage input of any kind yields
// ErrInvalidPayload; Decode never panics.
func Decode(s string) (Payload, error) {
	if s == "" {
		return Payload{}, ErrInvalidPayload
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		// Tolerate standard (padded) encoding produced by older clients.
		raw, err = base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Payload{}, ErrInvalidPayload
		}
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if p.OpaqueID == "" || p.TicketType == "" {
		return Payload{}, ErrInvalidPayload
	}
	return p, nil
}
