package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastrovia/ticketing/internal/model"
)

func TestCreateReservationHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	before := time.Now().UTC()

	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID,
		TableID: env.tableID,
		SeatIDs: env.tableSeats[:3],
		Notes:   "birthday",
	})
	require.NoError(t, err)
	r := rq.Reservation
	assert.Equal(t, model.ReservationPending, r.Status)
	assert.Equal(t, 3, r.PartySize)
	assert.Equal(t, "birthday", r.Notes)
	assert.WithinDuration(t, before.Add(DefaultHoldTTL), r.ExpiresAt, 5*time.Second)

	// The hold is advisory: it writes nothing to seat state.
	details, err := env.store.GetTableSeatsByIDs(ctx, env.tableSeats)
	require.NoError(t, err)
	for _, d := range details {
		assert.False(t, d.Claimed(), "holds must not claim seats")
	}
}

func TestCreateReservationQuoteWithoutSeats(t *testing.T) {
	env := newTestEnv(t)
	rq, err := env.reservations.Create(context.Background(), "user-a", CreateReservationInput{
		EventID:   env.eventID,
		TableID:   env.tableID,
		PartySize: 3,
	})
	require.NoError(t, err)
	// No named seats: the quote falls back to the table seat price per
	// guest.
	assert.True(t, rq.Quote.Equal(decimal.RequireFromString("7.50")), "quote was %s", rq.Quote)
	assert.Empty(t, rq.Reservation.RequestedSeatIDs)
}

func TestCreateReservationValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.reservations.Create(ctx, "u", CreateReservationInput{TableID: env.tableID, PartySize: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.reservations.Create(ctx, "u", CreateReservationInput{EventID: env.eventID, PartySize: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// More than six named seats is rejected before any lookup.
	seven := make([]string, 7)
	for i := range seven {
		seven[i] = "s"
	}
	_, err = env.reservations.Create(ctx, "u", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, SeatIDs: seven,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Party bigger than the table.
	_, err = env.reservations.Create(ctx, "u", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, PartySize: 5,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Seat from another table.
	_, err = env.reservations.Create(ctx, "u", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, SeatIDs: []string{env.gridSeatIDs[0]},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.reservations.Create(ctx, "u", CreateReservationInput{
		EventID: env.eventID, TableID: "missing", PartySize: 2,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReservationOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, PartySize: 2,
	})
	require.NoError(t, err)

	_, err = env.reservations.Get(ctx, "user-b", rq.Reservation.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := env.reservations.Get(ctx, "user-a", rq.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, rq.Reservation.ID, got.ID)

	_, err = env.reservations.CreateOrder(ctx, "user-b", rq.Reservation.ID, []OrderLineInput{
		{FoodItemID: "x", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateOrderTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	wine := env.store.AddFoodItem(model.FoodItem{Category: "drinks", Name: "Wine", Price: decimal.RequireFromString("6.50")})
	tapa := env.store.AddFoodItem(model.FoodItem{Category: "snacks", Name: "Tapa", Price: decimal.RequireFromString("2.75")})

	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID, TableID: env.tableID, PartySize: 2,
	})
	require.NoError(t, err)

	o, err := env.reservations.CreateOrder(ctx, "user-a", rq.Reservation.ID, []OrderLineInput{
		{FoodItemID: wine, Quantity: 2},
		{FoodItemID: tapa, Quantity: 3},
	})
	require.NoError(t, err)
	// 2 x 650 + 3 x 275 = 2125 cents, fixed at creation.
	assert.Equal(t, int64(2125), o.TotalCents)
	require.Len(t, o.Items, 2)

	_, err = env.reservations.CreateOrder(ctx, "user-a", rq.Reservation.ID, []OrderLineInput{
		{FoodItemID: "unknown", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.reservations.CreateOrder(ctx, "user-a", rq.Reservation.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
