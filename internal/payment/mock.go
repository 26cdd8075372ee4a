package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// MockBridge implements Bridge in memory for tests and load testing.
// Intents start in requires_payment_method; tests drive settlement via
// SettleIntent / FailIntent to get deterministic statuses.
type MockBridge struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

// NewMockBridge returns an empty in-memory bridge.
func NewMockBridge() *MockBridge {
	return &MockBridge{intents: make(map[string]*Intent)}
}

// CreateIntent records a new intent with a Stripe-shaped id.
func (b *MockBridge) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	if currency == "" {
		currency = "usd"
	}
	id := fmt.Sprintf("pi_mock_%s", randomAlphanumeric(24))
	in := &Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%s", id, randomAlphanumeric(24)),
		Status:       StatusRequiresPaymentMethod,
		AmountCents:  amountCents,
		Currency:     currency,
		Metadata:     copyMeta(metadata),
	}
	b.mu.Lock()
	b.intents[id] = in
	b.mu.Unlock()
	return snapshot(in), nil
}

// GetIntent returns the current state of a recorded intent.
func (b *MockBridge) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	in, ok := b.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("payment intent not found: %s", intentID)
	}
	return snapshot(in), nil
}

// SettleIntent marks an intent as succeeded, simulating the buyer
// completing payment out-of-band.
func (b *MockBridge) SettleIntent(intentID string) error {
	return b.setStatus(intentID, StatusSucceeded)
}

// FailIntent marks an intent as canceled.
func (b *MockBridge) FailIntent(intentID string) error {
	return b.setStatus(intentID, StatusCanceled)
}

func (b *MockBridge) setStatus(intentID, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	in, ok := b.intents[intentID]
	if !ok {
		return fmt.Errorf("payment intent not found: %s", intentID)
	}
	in.Status = status
	return nil
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func snapshot(in *Intent) *Intent {
	cp := *in
	cp.Metadata = copyMeta(in.Metadata)
	return &cp
}
