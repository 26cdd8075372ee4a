package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gastrovia/ticketing/internal/model"
)

// MemoryStore is an in-memory implementation of every store interface
// in this package.  A single mutex guards all maps, which makes each
// claim method atomic: a conflicting claim observes either none or all
// of another claim's writes, matching the transactional guarantees of
// the MySQL repositories.  Intended for tests.
type MemoryStore struct {
	mu           sync.Mutex
	events       map[string]*model.Event
	seats        map[string]*model.Seat
	tables       map[string]*model.EventTable
	tableSeats   map[string]*model.TableSeat
	reservations map[string]*model.Reservation
	orders       map[string]*model.Order
	foodItems    map[string]*model.FoodItem
	tickets      map[string]*model.Ticket
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]*model.Event),
		seats:        make(map[string]*model.Seat),
		tables:       make(map[string]*model.EventTable),
		tableSeats:   make(map[string]*model.TableSeat),
		reservations: make(map[string]*model.Reservation),
		orders:       make(map[string]*model.Order),
		foodItems:    make(map[string]*model.FoodItem),
		tickets:      make(map[string]*model.Ticket),
	}
}

// Seed helpers.  These take values, store copies and return the stored
// id so tests can build fixtures without touching the maps directly.

// AddEvent stores an event, generating an id when absent.
func (m *MemoryStore) AddEvent(e model.Event) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.events[e.ID] = &e
	return e.ID
}

// AddSeat stores a grid seat, generating an id when absent.
func (m *MemoryStore) AddSeat(s model.Seat) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.seats[s.ID] = &s
	return s.ID
}

// AddFoodItem stores a menu item, generating an id when absent.
func (m *MemoryStore) AddFoodItem(f model.FoodItem) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	m.foodItems[f.ID] = &f
	return f.ID
}

// GetEvent implements EventStore.
func (m *MemoryStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

// ListAvailableSeats implements EventStore.
func (m *MemoryStore) ListAvailableSeats(ctx context.Context, eventID string) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Seat
	for _, s := range m.seats {
		if s.EventID == eventID && !s.IsOccupied {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

// GetSeatsByIDs implements SeatStore.
func (m *MemoryStore) GetSeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		s, ok := m.seats[id]
		if !ok {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// GetTable implements TableStore.
func (m *MemoryStore) GetTable(ctx context.Context, id string) (*model.EventTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	cp := *t
	cp.Seats = m.seatsOfLocked(id)
	return &cp, nil
}

// ListTables implements TableStore.
func (m *MemoryStore) ListTables(ctx context.Context, eventID string) ([]model.EventTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EventTable
	for _, t := range m.tables {
		if t.EventID != eventID {
			continue
		}
		cp := *t
		cp.Seats = m.seatsOfLocked(t.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateTable implements TableStore.
func (m *MemoryStore) CreateTable(ctx context.Context, t *model.EventTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	cp.Seats = nil
	m.tables[t.ID] = &cp
	for i := range t.Seats {
		s := t.Seats[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
			t.Seats[i].ID = s.ID
		}
		s.TableID = t.ID
		m.tableSeats[s.ID] = &s
	}
	return nil
}

// UpdateTable implements TableStore.
func (m *MemoryStore) UpdateTable(ctx context.Context, t *model.EventTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tables[t.ID]
	if !ok {
		return ErrTableNotFound
	}
	cp := *t
	cp.Seats = nil
	cp.EventID = cur.EventID
	m.tables[t.ID] = &cp
	return nil
}

// AddTableSeats implements TableStore.
func (m *MemoryStore) AddTableSeats(ctx context.Context, seats []model.TableSeat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range seats {
		s := seats[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
			seats[i].ID = s.ID
		}
		m.tableSeats[s.ID] = &s
	}
	return nil
}

// RemoveTableSeats implements TableStore.  Mirrors the conditional
// delete of the MySQL repository: if any listed seat is claimed,
// nothing is removed and ErrConflict is returned.
func (m *MemoryStore) RemoveTableSeats(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		s, ok := m.tableSeats[id]
		if !ok || s.Claimed() {
			return ErrConflict
		}
	}
	for _, id := range ids {
		delete(m.tableSeats, id)
	}
	return nil
}

// DeleteTable implements TableStore.
func (m *MemoryStore) DeleteTable(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return ErrTableNotFound
	}
	for _, s := range m.tableSeats {
		if s.TableID == id && s.Claimed() {
			return ErrConflict
		}
	}
	for sid, s := range m.tableSeats {
		if s.TableID == id {
			delete(m.tableSeats, sid)
		}
	}
	delete(m.tables, id)
	return nil
}

// GetTableSeatsByIDs implements TableStore.
func (m *MemoryStore) GetTableSeatsByIDs(ctx context.Context, ids []string) ([]TableSeatDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TableSeatDetail, 0, len(ids))
	for _, id := range ids {
		s, ok := m.tableSeats[id]
		if !ok {
			continue
		}
		d := TableSeatDetail{TableSeat: *s}
		if t, ok := m.tables[s.TableID]; ok {
			d.TableEventID = t.EventID
			d.TableName = t.Name
		}
		out = append(out, d)
	}
	return out, nil
}

// CreateReservation implements ReservationStore.
func (m *MemoryStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

// GetReservation implements ReservationStore.
func (m *MemoryStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

// ListReservationsByUser implements ReservationStore.
func (m *MemoryStore) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ExpirePendingReservations implements ReservationStore.
func (m *MemoryStore) ExpirePendingReservations(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.Status == model.ReservationPending && r.ExpiresAt.Before(now) {
			r.Status = model.ReservationExpired
			n++
		}
	}
	return n, nil
}

// CreateOrder implements OrderStore.
func (m *MemoryStore) CreateOrder(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.NewString()
		}
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	m.orders[o.ID] = &cp
	return nil
}

// GetOrder implements OrderStore.
func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp, nil
}

// MarkOrderProcessing implements OrderStore.
func (m *MemoryStore) MarkOrderProcessing(ctx context.Context, id, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = model.OrderProcessing
	o.PaymentIntentID = &intentID
	return nil
}

// GetFoodItemsByIDs implements FoodStore.
func (m *MemoryStore) GetFoodItemsByIDs(ctx context.Context, ids []string) ([]model.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.FoodItem, 0, len(ids))
	for _, id := range ids {
		f, ok := m.foodItems[id]
		if !ok {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

// ListTicketsByPaymentRef implements TicketStore.
func (m *MemoryStore) ListTicketsByPaymentRef(ctx context.Context, paymentRef string) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.tickets {
		if t.PaymentRef == paymentRef {
			out = append(out, copyTicket(t))
		}
	}
	sortTickets(out)
	return out, nil
}

// GetTicketByQR implements TicketStore.
func (m *MemoryStore) GetTicketByQR(ctx context.Context, qrCode string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.QRCode == qrCode {
			cp := copyTicket(t)
			return &cp, nil
		}
	}
	return nil, ErrTicketNotFound
}

// ListTicketsByUser implements TicketStore.
func (m *MemoryStore) ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, copyTicket(t))
		}
	}
	sortTickets(out)
	return out, nil
}

// MarkTicketUsed implements TicketStore.
func (m *MemoryStore) MarkTicketUsed(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return false, nil
	}
	if t.Status != model.TicketPaid {
		return false, nil
	}
	t.Status = model.TicketUsed
	return true, nil
}

// ConfirmGridClaim implements ClaimStore.  All-or-nothing under the
// store lock: the availability check and the writes happen without the
// lock being dropped, so a losing claim leaves no partial state.
func (m *MemoryStore) ConfirmGridClaim(ctx context.Context, claim GridClaim) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range claim.SeatIDs {
		s, ok := m.seats[id]
		if !ok || s.IsOccupied {
			return nil, ErrConflict
		}
	}
	for _, id := range claim.SeatIDs {
		m.seats[id].IsOccupied = true
	}
	return m.issueTicketsLocked(claim.Tickets), nil
}

// ConfirmTableClaim implements ClaimStore.
func (m *MemoryStore) ConfirmTableClaim(ctx context.Context, claim TableClaim) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range claim.SeatIDs {
		s, ok := m.tableSeats[id]
		if !ok || s.Claimed() {
			return nil, ErrConflict
		}
	}
	res := claim.Reservation
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.Status = model.ReservationConfirmed
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	m.reservations[res.ID] = &res
	for _, id := range claim.SeatIDs {
		rid := res.ID
		m.tableSeats[id].ReservationID = &rid
	}
	if t, ok := m.tables[claim.TableID]; ok {
		t.Status = model.TableStatusOccupied
	}
	return m.issueTicketsLocked(claim.Tickets), nil
}

// ClaimReservationSeats implements ClaimStore.
func (m *MemoryStore) ClaimReservationSeats(ctx context.Context, orderID, reservationID string, seatIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range seatIDs {
		s, ok := m.tableSeats[id]
		if !ok || s.Claimed() {
			return ErrConflict
		}
	}
	for _, id := range seatIDs {
		rid := reservationID
		m.tableSeats[id].ReservationID = &rid
	}
	if o, ok := m.orders[orderID]; ok {
		o.Status = model.OrderPaid
	}
	if r, ok := m.reservations[reservationID]; ok {
		r.Status = model.ReservationConfirmed
	}
	return nil
}

func (m *MemoryStore) issueTicketsLocked(drafts []TicketDraft) []model.Ticket {
	now := time.Now().UTC()
	out := make([]model.Ticket, 0, len(drafts))
	for _, d := range drafts {
		t := model.Ticket{
			ID:           uuid.NewString(),
			UserID:       d.UserID,
			EventID:      d.EventID,
			SeatID:       d.SeatID,
			TableSeatID:  d.TableSeatID,
			Status:       model.TicketPaid,
			QRCode:       d.QRCode,
			PaymentRef:   d.PaymentRef,
			PurchaseDate: now,
		}
		for _, f := range d.Food {
			t.FoodItems = append(t.FoodItems, model.TicketFood{
				ID:         uuid.NewString(),
				TicketID:   t.ID,
				FoodItemID: f.FoodItemID,
				Quantity:   f.Quantity,
				Status:     "PENDING",
			})
		}
		cp := copyTicket(&t)
		m.tickets[t.ID] = &cp
		out = append(out, t)
	}
	return out
}

func (m *MemoryStore) seatsOfLocked(tableID string) []model.TableSeat {
	var out []model.TableSeat
	for _, s := range m.tableSeats {
		if s.TableID == tableID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func copyTicket(t *model.Ticket) model.Ticket {
	cp := *t
	cp.FoodItems = append([]model.TicketFood(nil), t.FoodItems...)
	return cp
}

func sortTickets(ts []model.Ticket) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].PurchaseDate.Equal(ts[j].PurchaseDate) {
			return ts[i].PurchaseDate.Before(ts[j].PurchaseDate)
		}
		return ts[i].ID < ts[j].ID
	})
}
