package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/repository"
)

// MaxSeatsPerHold caps how many seats a single reservation may name.
const MaxSeatsPerHold = 6

// DefaultHoldTTL is how long a PENDING reservation stays valid.
const DefaultHoldTTL = 10 * time.Minute

// ReservationService creates and reads reservation holds and the food
// orders attached to them. Holds are advisory: creating one never
// touches seat claim state, so two overlapping holds can coexist and
// the race is settled at confirmation time.
type ReservationService struct {
	events       repository.EventStore
	tables       repository.TableStore
	reservations repository.ReservationStore
	orders       repository.OrderStore
	food         repository.FoodStore
	holdTTL      time.Duration
}

// NewReservationService returns a ReservationService. A non-positive
// holdTTL falls back to DefaultHoldTTL.
func NewReservationService(
	events repository.EventStore,
	tables repository.TableStore,
	reservations repository.ReservationStore,
	orders repository.OrderStore,
	food repository.FoodStore,
	holdTTL time.Duration,
) *ReservationService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &ReservationService{
		events:       events,
		tables:       tables,
		reservations: reservations,
		orders:       orders,
		food:         food,
		holdTTL:      holdTTL,
	}
}

// CreateReservationInput is the request to open a hold.
type CreateReservationInput struct {
	EventID   string   `json:"event_id"`
	TableID   string   `json:"table_id"`
	SeatIDs   []string `json:"seat_ids"`
	PartySize int      `json:"party_size"`
	Datetime  string   `json:"datetime"` // RFC 3339
	Notes     string   `json:"notes"`
}

// ReservationQuote is a hold with its informational price quote. The
// quote is not a commitment: the amount actually charged is recomputed
// from the live catalog when the payment intent is created.
type ReservationQuote struct {
	Reservation *model.Reservation `json:"reservation"`
	Quote       decimal.Decimal    `json:"quote"`
}

// Create opens a PENDING hold for the caller. When seats are named they
// must all belong to the given table; otherwise the hold covers
// PartySize unspecified seats at that table. Seat availability is not
// checked beyond a soft capacity bound, and no seat rows are written.
func (s *ReservationService) Create(ctx context.Context, userID string, in CreateReservationInput) (*ReservationQuote, error) {
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", ErrInvalidRequest)
	}
	if in.TableID == "" {
		return nil, fmt.Errorf("%w: table_id is required", ErrInvalidRequest)
	}
	if len(in.SeatIDs) > MaxSeatsPerHold {
		return nil, fmt.Errorf("%w: at most %d seats per reservation", ErrInvalidRequest, MaxSeatsPerHold)
	}
	if len(in.SeatIDs) == 0 && in.PartySize < 1 {
		return nil, fmt.Errorf("%w: party_size must be positive", ErrInvalidRequest)
	}

	ev, err := s.events.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	table, err := s.tables.GetTable(ctx, in.TableID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if table.EventID != in.EventID {
		return nil, fmt.Errorf("%w: table does not belong to event", ErrInvalidRequest)
	}

	partySize := in.PartySize
	if len(in.SeatIDs) > 0 {
		partySize = len(in.SeatIDs)
	}
	if partySize > table.Capacity {
		return nil, fmt.Errorf("%w: party of %d exceeds table capacity %d", ErrInvalidRequest, partySize, table.Capacity)
	}

	quote := decimal.Zero
	if len(in.SeatIDs) > 0 {
		bySeat := make(map[string]model.TableSeat, len(table.Seats))
		for _, ts := range table.Seats {
			bySeat[ts.ID] = ts
		}
		for _, id := range in.SeatIDs {
			ts, ok := bySeat[id]
			if !ok {
				return nil, fmt.Errorf("%w: seat %s does not belong to table", ErrInvalidRequest, id)
			}
			quote = quote.Add(ev.TicketPrice).Add(ts.Price)
		}
	} else {
		quote = table.SeatPrice.Mul(decimal.NewFromInt(int64(partySize)))
	}

	when := time.Now().UTC()
	if in.Datetime != "" {
		t, err := time.Parse(time.RFC3339, in.Datetime)
		if err != nil {
			return nil, fmt.Errorf("%w: datetime must be RFC 3339", ErrInvalidRequest)
		}
		when = t.UTC()
	}

	tableID := in.TableID
	r := &model.Reservation{
		UserID:           userID,
		EventID:          in.EventID,
		EventTableID:     &tableID,
		RequestedSeatIDs: in.SeatIDs,
		PartySize:        partySize,
		Status:           model.ReservationPending,
		Datetime:         when,
		Notes:            in.Notes,
		ExpiresAt:        time.Now().UTC().Add(s.holdTTL),
	}
	if err := s.reservations.CreateReservation(ctx, r); err != nil {
		return nil, mapStoreErr(err)
	}
	return &ReservationQuote{Reservation: r, Quote: quote}, nil
}

// Get returns a reservation owned by the caller.
func (s *ReservationService) Get(ctx context.Context, userID, id string) (*model.Reservation, error) {
	r, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

// ListByUser returns the caller's reservations, newest first.
func (s *ReservationService) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	rs, err := s.reservations.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rs, nil
}

// OrderLineInput is one requested food line.
type OrderLineInput struct {
	FoodItemID string `json:"food_item_id"`
	Quantity   int    `json:"quantity"`
}

// CreateOrder attaches a food order to a reservation. Line items are
// priced from the catalog at creation time and the order total is
// fixed to their sum.
func (s *ReservationService) CreateOrder(ctx context.Context, userID, reservationID string, lines []OrderLineInput) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one line", ErrInvalidRequest)
	}
	r, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
		}
		ids = append(ids, l.FoodItemID)
	}
	items, err := s.food.GetFoodItemsByIDs(ctx, ids)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	byID := make(map[string]model.FoodItem, len(items))
	for _, f := range items {
		byID[f.ID] = f
	}

	o := &model.Order{
		ReservationID: &r.ID,
		Status:        model.OrderCreated,
	}
	for _, l := range lines {
		f, ok := byID[l.FoodItemID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown food item %s", ErrNotFound, l.FoodItemID)
		}
		priceCents := toCents(f.Price)
		o.Items = append(o.Items, model.OrderItem{
			FoodItemID: f.ID,
			Quantity:   l.Quantity,
			PriceCents: priceCents,
		})
		o.TotalCents += priceCents * int64(l.Quantity)
	}
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		return nil, mapStoreErr(err)
	}
	return o, nil
}
