package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/repository"
)

// ResizePlan describes how to move a table from its current seat set to
// a new capacity. Exactly one of SeatsToRemove / SeatsToAdd is
// populated; both are empty when Delta is zero.
type ResizePlan struct {
	Delta         int
	SeatsToRemove []string          // seat ids, highest index first
	SeatsToAdd    []model.TableSeat // new seats, indices above the current max
}

// PlanResize computes the seat changes needed to bring table to
// newCapacity. Capacity bounds depend on how the table was created:
// auto-generated tables stay within 1..6, manual tables within 1..8;
// out-of-bounds requests are rejected. Shrinking removes the
// highest-index unclaimed seats first and fails with ErrConflict when
// the claimed seats alone exceed the new capacity. Growing appends
// seats numbered above the current maximum at the table's seat price.
func PlanResize(table *model.EventTable, newCapacity int) (*ResizePlan, error) {
	maxCap := model.MaxManualTableCapacity
	if table.AutoGenerated {
		maxCap = model.MaxAutoTableCapacity
	}
	if newCapacity < 1 || newCapacity > maxCap {
		return nil, fmt.Errorf("%w: capacity must be between 1 and %d", ErrInvalidRequest, maxCap)
	}

	seats := append([]model.TableSeat(nil), table.Seats...)
	sort.Slice(seats, func(i, j int) bool { return seats[i].Index < seats[j].Index })

	plan := &ResizePlan{Delta: newCapacity - len(seats)}
	if plan.Delta == 0 {
		return plan, nil
	}

	if plan.Delta < 0 {
		claimed := 0
		for _, s := range seats {
			if s.Claimed() {
				claimed++
			}
		}
		if claimed > newCapacity {
			return nil, fmt.Errorf("%w: %d seats already claimed, cannot shrink to %d", ErrConflict, claimed, newCapacity)
		}
		toRemove := -plan.Delta
		for i := len(seats) - 1; i >= 0 && toRemove > 0; i-- {
			if seats[i].Claimed() {
				continue
			}
			plan.SeatsToRemove = append(plan.SeatsToRemove, seats[i].ID)
			toRemove--
		}
		if toRemove > 0 {
			return nil, fmt.Errorf("%w: not enough unclaimed seats to remove", ErrConflict)
		}
		return plan, nil
	}

	nextIndex := 0
	for _, s := range seats {
		if s.Index > nextIndex {
			nextIndex = s.Index
		}
	}
	for i := 0; i < plan.Delta; i++ {
		nextIndex++
		plan.SeatsToAdd = append(plan.SeatsToAdd, model.TableSeat{
			TableID: table.ID,
			Index:   nextIndex,
			Price:   table.SeatPrice,
		})
	}
	return plan, nil
}

// TableService manages event tables: manual creation, grid generation,
// capacity resizing and deletion.
type TableService struct {
	events repository.EventStore
	tables repository.TableStore
}

// NewTableService returns a TableService over the given stores.
func NewTableService(events repository.EventStore, tables repository.TableStore) *TableService {
	return &TableService{events: events, tables: tables}
}

// CreateTableInput carries the fields for a manually placed table.
type CreateTableInput struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Capacity int     `json:"capacity"`
	// SeatPrice in currency units, e.g. "12.50". Defaults to the
	// event's ticket price when empty.
	SeatPrice string `json:"seat_price"`
}

// CreateTable places a manual table with its seats for the event.
func (s *TableService) CreateTable(ctx context.Context, eventID string, in CreateTableInput) (*model.EventTable, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if in.Capacity < 1 || in.Capacity > model.MaxManualTableCapacity {
		return nil, fmt.Errorf("%w: capacity must be between 1 and %d", ErrInvalidRequest, model.MaxManualTableCapacity)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	price := ev.TicketPrice
	if in.SeatPrice != "" {
		p, err := parsePrice(in.SeatPrice)
		if err != nil {
			return nil, err
		}
		price = p
	}

	t := &model.EventTable{
		EventID:   eventID,
		Name:      in.Name,
		X:         in.X,
		Y:         in.Y,
		Rotation:  in.Rotation,
		Capacity:  in.Capacity,
		SeatPrice: price,
		Status:    model.TableStatusAvailable,
	}
	for i := 1; i <= in.Capacity; i++ {
		t.Seats = append(t.Seats, model.TableSeat{Index: i, Price: price})
	}
	if err := s.tables.CreateTable(ctx, t); err != nil {
		return nil, mapStoreErr(err)
	}
	return t, nil
}

// GenerateTables lays out count auto-generated tables in a square-ish
// grid, each with seatsPerTable seats priced at the event's ticket
// price. Tables are named "Mesa N" in creation order.
func (s *TableService) GenerateTables(ctx context.Context, eventID string, count, seatsPerTable int) ([]model.EventTable, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: table count must be positive", ErrInvalidRequest)
	}
	if seatsPerTable < 1 || seatsPerTable > model.MaxAutoTableCapacity {
		return nil, fmt.Errorf("%w: seats per table must be between 1 and %d", ErrInvalidRequest, model.MaxAutoTableCapacity)
	}

	cols := int(math.Ceil(math.Sqrt(float64(count))))
	const spacing = 160.0

	out := make([]model.EventTable, 0, count)
	for i := 0; i < count; i++ {
		t := &model.EventTable{
			EventID:       eventID,
			Name:          fmt.Sprintf("Mesa %d", i+1),
			X:             float64(i%cols) * spacing,
			Y:             float64(i/cols) * spacing,
			Capacity:      seatsPerTable,
			SeatPrice:     ev.TicketPrice,
			Status:        model.TableStatusAvailable,
			AutoGenerated: true,
		}
		for j := 1; j <= seatsPerTable; j++ {
			t.Seats = append(t.Seats, model.TableSeat{Index: j, Price: ev.TicketPrice})
		}
		if err := s.tables.CreateTable(ctx, t); err != nil {
			return nil, mapStoreErr(err)
		}
		out = append(out, *t)
	}
	return out, nil
}

// UpdateTableInput carries the mutable table fields. Nil pointers mean
// "leave unchanged".
type UpdateTableInput struct {
	Name     *string  `json:"name"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
	Capacity *int     `json:"capacity"`
}

// UpdateTable applies position/name changes and, when Capacity is set,
// executes the resize plan against the store.
func (s *TableService) UpdateTable(ctx context.Context, tableID string, in UpdateTableInput) (*model.EventTable, error) {
	t, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.X != nil {
		t.X = *in.X
	}
	if in.Y != nil {
		t.Y = *in.Y
	}
	if in.Rotation != nil {
		t.Rotation = *in.Rotation
	}

	if in.Capacity != nil {
		plan, err := PlanResize(t, *in.Capacity)
		if err != nil {
			return nil, err
		}
		if len(plan.SeatsToRemove) > 0 {
			if err := s.tables.RemoveTableSeats(ctx, plan.SeatsToRemove); err != nil {
				return nil, mapStoreErr(err)
			}
		}
		if len(plan.SeatsToAdd) > 0 {
			if err := s.tables.AddTableSeats(ctx, plan.SeatsToAdd); err != nil {
				return nil, mapStoreErr(err)
			}
		}
		t.Capacity = *in.Capacity
	}

	if err := s.tables.UpdateTable(ctx, t); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.tables.GetTable(ctx, tableID)
}

// DeleteTable removes the table and its seats. Tables with any claimed
// seat cannot be deleted.
func (s *TableService) DeleteTable(ctx context.Context, tableID string) error {
	return mapStoreErr(s.tables.DeleteTable(ctx, tableID))
}

// ListTables returns the event's tables with their seats.
func (s *TableService) ListTables(ctx context.Context, eventID string) ([]model.EventTable, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, mapStoreErr(err)
	}
	ts, err := s.tables.ListTables(ctx, eventID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return ts, nil
}
