// Package payment abstracts the external payment processor behind the
// Bridge interface.  The processor is an untrusted collaborator: callers
// must always re-query intent status through the bridge and never act on
// a client-supplied "it succeeded" flag.
package payment

import "context"

// Intent statuses the core cares about.  Values mirror the processor's
// own vocabulary so they can be compared against webhook/poll results.
const (
	StatusSucceeded             = "succeeded"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusCanceled              = "canceled"
)

// Intent is the bridge-level view of a payment intent.  Metadata is the
// data frozen at intent-creation time; the confirmation engine recovers
// the seat set from it rather than from live request input.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

// Bridge is the abstraction over the external payment processor.  Two
// operations are all the core requires: creating an intent for an
// amount, and re-querying its settlement status.
type Bridge interface {
	// CreateIntent registers a charge for the given amount in minor
	// currency units.  The metadata map is stored with the intent and
	// returned verbatim by GetIntent.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)

	// GetIntent retrieves the current processor-side state of an intent.
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}
