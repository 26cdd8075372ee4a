package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/payment"
	"github.com/gastrovia/ticketing/internal/qr"
	"github.com/gastrovia/ticketing/internal/repository"
)

// testEnv bundles the in-memory store, the mock payment bridge and the
// services under test.
type testEnv struct {
	store  *repository.MemoryStore
	bridge *payment.MockBridge

	ticketing    *TicketingService
	reservations *ReservationService
	tables       *TableService

	eventID     string
	gridSeatIDs []string // 5 free grid seats
	tableID     string
	tableSeats  []string // 4 free table seats at 2.50 each
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	bridge := payment.NewMockBridge()

	eventID := store.AddEvent(model.Event{
		Name:        "Jazz Night",
		Date:        time.Now().Add(48 * time.Hour),
		TicketPrice: decimal.RequireFromString("10.00"),
		TotalSeats:  5,
	})

	var gridSeats []string
	for i := 0; i < 5; i++ {
		id := store.AddSeat(model.Seat{EventID: eventID, Row: 1, Column: i + 1})
		gridSeats = append(gridSeats, id)
	}

	table := &model.EventTable{
		EventID:   eventID,
		Name:      "Mesa 1",
		Capacity:  4,
		SeatPrice: decimal.RequireFromString("2.50"),
		Status:    model.TableStatusAvailable,
	}
	for i := 1; i <= 4; i++ {
		table.Seats = append(table.Seats, model.TableSeat{Index: i, Price: decimal.RequireFromString("2.50")})
	}
	require.NoError(t, store.CreateTable(context.Background(), table))
	var tableSeats []string
	for _, s := range table.Seats {
		tableSeats = append(tableSeats, s.ID)
	}

	return &testEnv{
		store:  store,
		bridge: bridge,
		ticketing: NewTicketingService(
			store, store, store, store, store, store, store, store,
			bridge, "eur", 0, nil,
		),
		reservations: NewReservationService(store, store, store, store, store, 0),
		tables:       NewTableService(store, store),
		eventID:      eventID,
		gridSeatIDs:  gridSeats,
		tableID:      table.ID,
		tableSeats:   tableSeats,
	}
}

func (e *testEnv) settledIntent(t *testing.T, userID string, seatIDs []string) string {
	t.Helper()
	res, err := e.ticketing.CreatePaymentIntent(context.Background(), userID, CreateIntentInput{
		EventID: e.eventID,
		SeatIDs: seatIDs,
	})
	require.NoError(t, err)
	require.NoError(t, e.bridge.SettleIntent(res.IntentID))
	return res.IntentID
}

func TestTablePurchaseEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seats := env.tableSeats[:2]

	// Hold two named table seats: quote is (10.00 + 2.50) per seat.
	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID,
		TableID: env.tableID,
		SeatIDs: seats,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, rq.Reservation.Status)
	assert.True(t, rq.Quote.Equal(decimal.RequireFromString("25.00")), "quote was %s", rq.Quote)

	// The intent charges the same amount, in cents.
	res, err := env.ticketing.CreatePaymentIntent(ctx, "user-a", CreateIntentInput{
		EventID: env.eventID,
		SeatIDs: seats,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.AmountCents)

	// Not settled yet: confirmation must refuse.
	_, err = env.ticketing.ConfirmPayment(ctx, "user-a", res.IntentID)
	assert.ErrorIs(t, err, ErrPaymentNotSettled)

	require.NoError(t, env.bridge.SettleIntent(res.IntentID))
	tickets, err := env.ticketing.ConfirmPayment(ctx, "user-a", res.IntentID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	for _, tk := range tickets {
		assert.Equal(t, model.TicketPaid, tk.Status)
		assert.Equal(t, res.IntentID, tk.PaymentRef)
		p, err := qr.Decode(tk.QRCode)
		require.NoError(t, err)
		assert.Equal(t, qr.TypeTableSeat, p.TicketType)
		assert.Equal(t, "Mesa 1", p.TableName)
	}

	// The claimed seats are gone and the table is occupied.
	table, err := env.store.GetTable(ctx, env.tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusOccupied, table.Status)
	claimed := 0
	for _, s := range table.Seats {
		if s.Claimed() {
			claimed++
		}
	}
	assert.Equal(t, 2, claimed)

	// First scan admits, the second reports the ticket as spent.
	v1, err := env.ticketing.Verify(ctx, tickets[0].QRCode)
	require.NoError(t, err)
	assert.True(t, v1.Valid)
	v2, err := env.ticketing.Verify(ctx, tickets[0].QRCode)
	require.NoError(t, err)
	assert.False(t, v2.Valid)
	assert.Equal(t, "already used", v2.Reason)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	intentID := env.settledIntent(t, "user-a", env.gridSeatIDs[:2])

	first, err := env.ticketing.ConfirmPayment(ctx, "user-a", intentID)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := env.ticketing.ConfirmPayment(ctx, "user-a", intentID)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, ticketIDs(first), ticketIDs(second))

	// No extra tickets were minted by the repeat call.
	all, err := env.store.ListTicketsByPaymentRef(ctx, intentID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGridSeatRaceSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contested := env.gridSeatIDs[2]

	// Buyer A wants seats 1-3, buyer B wants seats 3-5. Both intents
	// settle; only one confirmation may claim seat 3.
	intentA := env.settledIntent(t, "user-a", env.gridSeatIDs[:3])
	intentB := env.settledIntent(t, "user-b", env.gridSeatIDs[2:])

	ticketsA, errA := env.ticketing.ConfirmPayment(ctx, "user-a", intentA)
	require.NoError(t, errA)
	require.Len(t, ticketsA, 3)

	_, errB := env.ticketing.ConfirmPayment(ctx, "user-b", intentB)
	assert.ErrorIs(t, errB, ErrConflict)

	// The losing confirmation left no partial state: B's other seats
	// are still free.
	seats, err := env.store.GetSeatsByIDs(ctx, env.gridSeatIDs)
	require.NoError(t, err)
	for _, s := range seats {
		switch s.ID {
		case env.gridSeatIDs[0], env.gridSeatIDs[1], contested:
			assert.True(t, s.IsOccupied, "seat %s should be claimed by A", s.ID)
		default:
			assert.False(t, s.IsOccupied, "seat %s must stay free after B's rollback", s.ID)
		}
	}
	ticketsB, err := env.store.ListTicketsByPaymentRef(ctx, intentB)
	require.NoError(t, err)
	assert.Empty(t, ticketsB)
}

func TestConcurrentConfirmationsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contested := []string{env.gridSeatIDs[0]}

	const buyers = 20
	intents := make([]string, buyers)
	users := make([]string, buyers)
	for i := 0; i < buyers; i++ {
		users[i] = "user-" + string(rune('a'+i))
		intents[i] = env.settledIntent(t, users[i], contested)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.ticketing.ConfirmPayment(ctx, users[i], intents[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, winners, "exactly one confirmation must win the seat")
}

func TestCreatePaymentIntentPricesFood(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	foodID := env.store.AddFoodItem(model.FoodItem{
		Category: "drinks",
		Name:     "House Red",
		Price:    decimal.RequireFromString("4.25"),
	})

	seat := env.tableSeats[0]
	res, err := env.ticketing.CreatePaymentIntent(ctx, "user-a", CreateIntentInput{
		EventID: env.eventID,
		SeatIDs: []string{seat},
		FoodOrders: []model.FoodOrder{{
			SeatID:    seat,
			FoodItems: []model.FoodLine{{FoodID: foodID, Quantity: 2}},
		}},
	})
	require.NoError(t, err)
	// 10.00 ticket + 2.50 seat + 2 x 4.25 food.
	assert.Equal(t, int64(2100), res.AmountCents)

	require.NoError(t, env.bridge.SettleIntent(res.IntentID))
	tickets, err := env.ticketing.ConfirmPayment(ctx, "user-a", res.IntentID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Len(t, tickets[0].FoodItems, 1)
	assert.Equal(t, foodID, tickets[0].FoodItems[0].FoodItemID)
	assert.Equal(t, 2, tickets[0].FoodItems[0].Quantity)
}

func TestCreatePaymentIntentRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ticketing.CreatePaymentIntent(ctx, "u", CreateIntentInput{EventID: env.eventID})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.ticketing.CreatePaymentIntent(ctx, "u", CreateIntentInput{
		EventID: env.eventID,
		SeatIDs: []string{env.gridSeatIDs[0], env.gridSeatIDs[0]},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.ticketing.CreatePaymentIntent(ctx, "u", CreateIntentInput{
		EventID: "nope",
		SeatIDs: []string{env.gridSeatIDs[0]},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// Pre-check: an occupied seat is refused before any intent exists.
	intent := env.settledIntent(t, "user-a", env.gridSeatIDs[:1])
	_, err = env.ticketing.ConfirmPayment(ctx, "user-a", intent)
	require.NoError(t, err)
	_, err = env.ticketing.CreatePaymentIntent(ctx, "user-b", CreateIntentInput{
		EventID: env.eventID,
		SeatIDs: env.gridSeatIDs[:1],
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmPaymentWrongUser(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.settledIntent(t, "user-a", env.gridSeatIDs[:1])

	_, err := env.ticketing.ConfirmPayment(context.Background(), "user-b", intentID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestVerifyGarbagePayload(t *testing.T) {
	env := newTestEnv(t)
	for _, code := range []string{"", "not base64 at all!", "aGVsbG8"} {
		_, err := env.ticketing.Verify(context.Background(), code)
		assert.ErrorIs(t, err, ErrNotFound, "payload %q", code)
	}
}

func TestVerifyUnknownButWellFormed(t *testing.T) {
	env := newTestEnv(t)
	// A syntactically valid payload that was never issued must 404 the
	// same way garbage does.
	code, err := qr.Encode(qr.NewPayload(qr.TypeSeat, env.eventID, "user-x", "pi_forged"))
	require.NoError(t, err)
	_, err = env.ticketing.Verify(context.Background(), code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayAndConfirmOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	foodID := env.store.AddFoodItem(model.FoodItem{
		Category: "snacks",
		Name:     "Olives",
		Price:    decimal.RequireFromString("3.00"),
	})

	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID,
		TableID: env.tableID,
		SeatIDs: env.tableSeats[:2],
	})
	require.NoError(t, err)

	order, err := env.reservations.CreateOrder(ctx, "user-a", rq.Reservation.ID, []OrderLineInput{
		{FoodItemID: foodID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(900), order.TotalCents)
	assert.Equal(t, model.OrderCreated, order.Status)

	intent, order, err := env.ticketing.PayOrder(ctx, "user-a", order.ID)
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, int64(900), intent.AmountCents)
	assert.Equal(t, model.OrderProcessing, order.Status)

	// Unsettled intent: confirmation refuses.
	_, err = env.ticketing.ConfirmOrder(ctx, "user-a", order.ID)
	assert.ErrorIs(t, err, ErrPaymentNotSettled)

	require.NoError(t, env.bridge.SettleIntent(intent.IntentID))
	confirmed, err := env.ticketing.ConfirmOrder(ctx, "user-a", order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, confirmed.Status)

	// The reservation's requested seats were claimed and it confirmed.
	r, err := env.store.GetReservation(ctx, rq.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, r.Status)
	details, err := env.store.GetTableSeatsByIDs(ctx, env.tableSeats[:2])
	require.NoError(t, err)
	for _, d := range details {
		assert.True(t, d.Claimed())
	}

	// Confirming again is a no-op returning the paid order.
	again, err := env.ticketing.ConfirmOrder(ctx, "user-a", order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, again.Status)
}

func TestConfirmOrderLosesSeatRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	foodID := env.store.AddFoodItem(model.FoodItem{
		Category: "snacks", Name: "Bread", Price: decimal.RequireFromString("1.50"),
	})

	rq, err := env.reservations.Create(ctx, "user-a", CreateReservationInput{
		EventID: env.eventID,
		TableID: env.tableID,
		SeatIDs: env.tableSeats[:1],
	})
	require.NoError(t, err)
	order, err := env.reservations.CreateOrder(ctx, "user-a", rq.Reservation.ID, []OrderLineInput{
		{FoodItemID: foodID, Quantity: 1},
	})
	require.NoError(t, err)
	intent, order, err := env.ticketing.PayOrder(ctx, "user-a", order.ID)
	require.NoError(t, err)
	require.NoError(t, env.bridge.SettleIntent(intent.IntentID))

	// A direct purchase grabs the same seat first.
	direct := env.settledIntent(t, "user-b", env.tableSeats[:1])
	_, err = env.ticketing.ConfirmPayment(ctx, "user-b", direct)
	require.NoError(t, err)

	_, err = env.ticketing.ConfirmOrder(ctx, "user-a", order.ID)
	assert.ErrorIs(t, err, ErrConflict)

	// The order stays unpaid after the lost race.
	o, err := env.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderProcessing, o.Status)
}

func ticketIDs(ts []model.Ticket) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}
