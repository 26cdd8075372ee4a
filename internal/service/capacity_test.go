package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/repository"
)

func seatsWithIndices(tableID string, claimedIdx map[int]bool, n int) []model.TableSeat {
	seats := make([]model.TableSeat, 0, n)
	for i := 1; i <= n; i++ {
		s := model.TableSeat{ID: "seat-" + string(rune('0'+i)), TableID: tableID, Index: i}
		if claimedIdx[i] {
			rid := "res-1"
			s.ReservationID = &rid
		}
		seats = append(seats, s)
	}
	return seats
}

func TestPlanResizeBounds(t *testing.T) {
	manual := &model.EventTable{ID: "t1", Capacity: 4, Seats: seatsWithIndices("t1", nil, 4)}
	auto := &model.EventTable{ID: "t2", Capacity: 4, AutoGenerated: true, Seats: seatsWithIndices("t2", nil, 4)}

	for _, bad := range []int{0, -1, 9} {
		_, err := PlanResize(manual, bad)
		assert.ErrorIs(t, err, ErrInvalidRequest, "manual capacity %d", bad)
	}
	// 7 and 8 are fine for manual tables but out of range for
	// auto-generated ones.
	_, err := PlanResize(manual, 8)
	assert.NoError(t, err)
	_, err = PlanResize(auto, 7)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = PlanResize(auto, 6)
	assert.NoError(t, err)
}

func TestPlanResizeNoChange(t *testing.T) {
	table := &model.EventTable{ID: "t1", Capacity: 4, Seats: seatsWithIndices("t1", nil, 4)}
	plan, err := PlanResize(table, 4)
	require.NoError(t, err)
	assert.Zero(t, plan.Delta)
	assert.Empty(t, plan.SeatsToRemove)
	assert.Empty(t, plan.SeatsToAdd)
}

func TestPlanResizeShrinkRemovesHighestUnclaimed(t *testing.T) {
	// Seats 1 and 3 claimed; shrinking 5 -> 3 must drop seats 5 and 4.
	table := &model.EventTable{ID: "t1", Capacity: 5, Seats: seatsWithIndices("t1", map[int]bool{1: true, 3: true}, 5)}
	plan, err := PlanResize(table, 3)
	require.NoError(t, err)
	assert.Equal(t, -2, plan.Delta)
	assert.Equal(t, []string{"seat-5", "seat-4"}, plan.SeatsToRemove)
}

func TestPlanResizeShrinkSkipsClaimed(t *testing.T) {
	// Highest seat claimed: removal falls through to the next ones down.
	table := &model.EventTable{ID: "t1", Capacity: 5, Seats: seatsWithIndices("t1", map[int]bool{5: true}, 5)}
	plan, err := PlanResize(table, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"seat-4"}, plan.SeatsToRemove)
}

func TestPlanResizeShrinkConflict(t *testing.T) {
	table := &model.EventTable{ID: "t1", Capacity: 5, Seats: seatsWithIndices("t1", map[int]bool{1: true, 2: true, 3: true}, 5)}
	_, err := PlanResize(table, 2)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPlanResizeGrowAppendsAboveMax(t *testing.T) {
	table := &model.EventTable{
		ID:        "t1",
		Capacity:  2,
		SeatPrice: decimal.RequireFromString("3.00"),
		Seats:     seatsWithIndices("t1", nil, 2),
	}
	plan, err := PlanResize(table, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Delta)
	require.Len(t, plan.SeatsToAdd, 3)
	for i, s := range plan.SeatsToAdd {
		assert.Equal(t, 3+i, s.Index)
		assert.True(t, s.Price.Equal(decimal.RequireFromString("3.00")))
	}
}

func TestTableServiceCreateAndResize(t *testing.T) {
	store := repository.NewMemoryStore()
	eventID := store.AddEvent(model.Event{
		Name:        "Dinner Show",
		Date:        time.Now().Add(24 * time.Hour),
		TicketPrice: decimal.RequireFromString("15.00"),
	})
	svc := NewTableService(store, store)
	ctx := context.Background()

	created, err := svc.CreateTable(ctx, eventID, CreateTableInput{Name: "Window", Capacity: 3, SeatPrice: "5.00"})
	require.NoError(t, err)
	require.Len(t, created.Seats, 3)

	_, err = svc.CreateTable(ctx, eventID, CreateTableInput{Name: "Too Big", Capacity: 9})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	newCap := 5
	updated, err := svc.UpdateTable(ctx, created.ID, UpdateTableInput{Capacity: &newCap})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Capacity)
	assert.Len(t, updated.Seats, 5)

	newCap = 2
	updated, err = svc.UpdateTable(ctx, created.ID, UpdateTableInput{Capacity: &newCap})
	require.NoError(t, err)
	assert.Len(t, updated.Seats, 2)
}

func TestTableServiceGenerateTables(t *testing.T) {
	store := repository.NewMemoryStore()
	eventID := store.AddEvent(model.Event{
		Name:        "Gala",
		Date:        time.Now().Add(24 * time.Hour),
		TicketPrice: decimal.RequireFromString("20.00"),
	})
	svc := NewTableService(store, store)
	ctx := context.Background()

	tables, err := svc.GenerateTables(ctx, eventID, 5, 4)
	require.NoError(t, err)
	require.Len(t, tables, 5)
	for _, tb := range tables {
		assert.True(t, tb.AutoGenerated)
		assert.Len(t, tb.Seats, 4)
		assert.True(t, tb.SeatPrice.Equal(decimal.RequireFromString("20.00")))
	}
	// 5 tables on a ceil(sqrt(5)) = 3 column grid: the fourth table
	// wraps to the second row.
	assert.Equal(t, tables[0].Y, tables[2].Y)
	assert.Greater(t, tables[3].Y, tables[0].Y)

	_, err = svc.GenerateTables(ctx, eventID, 2, 7)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTableServiceDeleteClaimedConflict(t *testing.T) {
	store := repository.NewMemoryStore()
	eventID := store.AddEvent(model.Event{
		Name:        "Recital",
		Date:        time.Now().Add(24 * time.Hour),
		TicketPrice: decimal.RequireFromString("8.00"),
	})
	svc := NewTableService(store, store)
	ctx := context.Background()

	created, err := svc.CreateTable(ctx, eventID, CreateTableInput{Name: "Front", Capacity: 2})
	require.NoError(t, err)

	// Claim one seat, then deletion must refuse.
	_, err = store.ConfirmTableClaim(ctx, repository.TableClaim{
		Reservation: model.Reservation{UserID: "u", EventID: eventID, PartySize: 1, EventTableID: &created.ID},
		TableID:     created.ID,
		SeatIDs:     []string{created.Seats[0].ID},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteTable(ctx, created.ID), ErrConflict)
}
