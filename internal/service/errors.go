// Package service implements the reservation, capacity, ticketing and
// sweeper logic on top of the repository stores and the payment bridge.
package service

import (
	"errors"

	"github.com/gastrovia/ticketing/internal/repository"
)

// Service-level error taxonomy. Handlers translate these to HTTP
// status codes; everything else surfaces as an internal error.
var (
	// ErrNotFound marks a missing event, table, seat, reservation,
	// order or ticket.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidRequest marks malformed or out-of-bounds input, such
	// as a capacity outside the allowed range or an empty seat list.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConflict marks a lost race: a seat in the requested set was
	// claimed by a concurrent confirmation, or a structural change
	// would orphan a claimed seat.
	ErrConflict = errors.New("conflict")

	// ErrPaymentNotSettled is returned when the payment processor
	// reports the intent in any state other than succeeded.
	ErrPaymentNotSettled = errors.New("payment not settled")

	// ErrForbidden marks an authenticated caller acting on a resource
	// owned by someone else.
	ErrForbidden = errors.New("forbidden")
)

// mapStoreErr translates repository sentinels into the service
// taxonomy. Unknown errors pass through unchanged.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrFoodItemNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	default:
		return err
	}
}
