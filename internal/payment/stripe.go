package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeBridge implements Bridge against the Stripe API.
type StripeBridge struct {
	currency string
}

// NewStripeBridge configures the global Stripe client with the given
// secret key and returns a bridge charging in the given currency.
func NewStripeBridge(secretKey, currency string) (*StripeBridge, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if currency == "" {
		currency = "usd"
	}
	stripe.Key = secretKey
	return &StripeBridge{currency: currency}, nil
}

// CreateIntent creates a Stripe PaymentIntent with automatic payment
// methods enabled and the provided metadata attached.
func (b *StripeBridge) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	if currency == "" {
		currency = b.currency
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

// GetIntent re-queries the intent directly from Stripe.  The returned
// status is the processor's word, not the client's.
func (b *StripeBridge) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if intentID == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
