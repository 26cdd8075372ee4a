// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios, for example a missing table versus a seat that has already
// been claimed by a concurrent confirmation.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrTableNotFound is returned when an event table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// ErrSeatNotFound is returned when one or more requested seats do not exist.
var ErrSeatNotFound = errors.New("seat not found")

// ErrReservationNotFound is returned when a reservation lookup yields no rows.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrOrderNotFound is returned when an order lookup yields no rows.
var ErrOrderNotFound = errors.New("order not found")

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrFoodItemNotFound is returned when a menu item referenced by an
// order line does not exist in the catalog.
var ErrFoodItemNotFound = errors.New("food item not found")

// ErrConflict is returned when a mutation cannot proceed because of
// conflicting state: a conditional seat claim that touched fewer rows
// than requested, or deleting a table that still has claimed seats.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
