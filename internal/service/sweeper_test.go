package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/repository"
)

func TestSweepOnceExpiresOnlyLapsedHolds(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	lapsed := &model.Reservation{
		UserID: "u", EventID: "e", PartySize: 2,
		Status: model.ReservationPending, Datetime: now, ExpiresAt: now.Add(-time.Minute),
	}
	fresh := &model.Reservation{
		UserID: "u", EventID: "e", PartySize: 2,
		Status: model.ReservationPending, Datetime: now, ExpiresAt: now.Add(10 * time.Minute),
	}
	confirmed := &model.Reservation{
		UserID: "u", EventID: "e", PartySize: 2,
		Status: model.ReservationConfirmed, Datetime: now, ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, store.CreateReservation(ctx, lapsed))
	require.NoError(t, store.CreateReservation(ctx, fresh))
	require.NoError(t, store.CreateReservation(ctx, confirmed))

	n, err := NewSweeper(store, 0).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := store.GetReservation(ctx, lapsed.ID)
	assert.Equal(t, model.ReservationExpired, got.Status)
	got, _ = store.GetReservation(ctx, fresh.ID)
	assert.Equal(t, model.ReservationPending, got.Status)
	// CONFIRMED is terminal for the sweeper even when expires_at has
	// long passed.
	got, _ = store.GetReservation(ctx, confirmed.ID)
	assert.Equal(t, model.ReservationConfirmed, got.Status)

	// A second pass finds nothing left to expire.
	n, err = NewSweeper(store, 0).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpiredHoldDoesNotBlockPurchase(t *testing.T) {
	// Holds are advisory: a lapsed hold leaves seats exactly as
	// purchasable as they always were.
	env := newTestEnv(t)
	ctx := context.Background()

	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, SeatIDs: env.tableSeats[:2],
	})
	require.NoError(t, err)

	// Force the hold past its deadline and sweep.
	rq.Reservation.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, env.store.CreateReservation(ctx, rq.Reservation))
	_, err = NewSweeper(env.store, 0).SweepOnce(ctx)
	require.NoError(t, err)

	got, _ := env.store.GetReservation(ctx, rq.Reservation.ID)
	assert.Equal(t, model.ReservationExpired, got.Status)

	// Another buyer claims the same seats without interference.
	intent := env.settledIntent(t, "user-b", env.tableSeats[:2])
	tickets, err := env.ticketing.ConfirmPayment(ctx, "user-b", intent)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}
