package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastrovia/ticketing/internal/model"
	"github.com/gastrovia/ticketing/internal/monitoring"
	"github.com/gastrovia/ticketing/internal/payment"
	"github.com/gastrovia/ticketing/internal/qr"
	"github.com/gastrovia/ticketing/internal/queue"
	"github.com/gastrovia/ticketing/internal/repository"
)

// DefaultConfirmTimeout bounds one confirmation attempt end to end:
// processor re-query plus the claim transaction.
const DefaultConfirmTimeout = 15 * time.Second

// Intent metadata keys. The seat set and food orders are frozen under
// these keys at intent-creation time and are the only source of truth
// at confirmation time.
const (
	metaUserID     = "userId"
	metaEventID    = "eventId"
	metaSeatIDs    = "seatIds"
	metaSeatCount  = "seatCount"
	metaFoodOrders = "foodOrders"
	metaTicketType = "ticketType"
	metaOrderID    = "orderId"
)

// PublishFunc sends a tickets-issued event to the broker. It is a
// field rather than a direct call so tests can run without a broker.
type PublishFunc func(ctx context.Context, event queue.TicketsIssuedEvent) error

// TicketingService owns the payment intent and confirmation pipeline:
// intent creation with frozen metadata, the conditional seat claim on
// confirmation, QR issuance and door verification.
type TicketingService struct {
	events  repository.EventStore
	seats   repository.SeatStore
	tables  repository.TableStore
	food    repository.FoodStore
	tickets repository.TicketStore
	claims  repository.ClaimStore
	orders  repository.OrderStore
	resv    repository.ReservationStore

	bridge         payment.Bridge
	currency       string
	confirmTimeout time.Duration
	publish        PublishFunc
}

// NewTicketingService wires the confirmation pipeline. A nil publish
// disables broker notifications; a non-positive confirmTimeout falls
// back to DefaultConfirmTimeout.
func NewTicketingService(
	events repository.EventStore,
	seats repository.SeatStore,
	tables repository.TableStore,
	food repository.FoodStore,
	tickets repository.TicketStore,
	claims repository.ClaimStore,
	orders repository.OrderStore,
	resv repository.ReservationStore,
	bridge payment.Bridge,
	currency string,
	confirmTimeout time.Duration,
	publish PublishFunc,
) *TicketingService {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	if currency == "" {
		currency = "eur"
	}
	return &TicketingService{
		events:         events,
		seats:          seats,
		tables:         tables,
		food:           food,
		tickets:        tickets,
		claims:         claims,
		orders:         orders,
		resv:           resv,
		bridge:         bridge,
		currency:       currency,
		confirmTimeout: confirmTimeout,
		publish:        publish,
	}
}

// CreateIntentInput is the request to start a ticket purchase.
type CreateIntentInput struct {
	EventID    string            `json:"event_id"`
	SeatIDs    []string          `json:"seat_ids"`
	FoodOrders []model.FoodOrder `json:"food_orders"`
}

// IntentResult is what the client needs to drive the processor's
// payment flow.
type IntentResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// CreatePaymentIntent prices the requested seats from the live catalog,
// freezes the purchase into intent metadata and registers the charge
// with the processor. Seats must all be grid seats or all table seats
// of the given event; availability is pre-checked here as a courtesy,
// but only the confirmation claim is authoritative.
func (s *TicketingService) CreatePaymentIntent(ctx context.Context, userID string, in CreateIntentInput) (*IntentResult, error) {
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", ErrInvalidRequest)
	}
	if len(in.SeatIDs) == 0 {
		return nil, fmt.Errorf("%w: seat_ids is required", ErrInvalidRequest)
	}
	if hasDuplicates(in.SeatIDs) {
		return nil, fmt.Errorf("%w: duplicate seat ids", ErrInvalidRequest)
	}

	ev, err := s.events.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	ticketType, amount, err := s.priceSeats(ctx, ev, in.SeatIDs)
	if err != nil {
		return nil, err
	}

	foodTotal, err := s.priceFood(ctx, in.SeatIDs, in.FoodOrders)
	if err != nil {
		return nil, err
	}
	amount = amount.Add(foodTotal)

	meta := map[string]string{
		metaUserID:     userID,
		metaEventID:    in.EventID,
		metaSeatIDs:    strings.Join(in.SeatIDs, ","),
		metaSeatCount:  strconv.Itoa(len(in.SeatIDs)),
		metaTicketType: ticketType,
	}
	if len(in.FoodOrders) > 0 {
		b, err := json.Marshal(in.FoodOrders)
		if err != nil {
			return nil, err
		}
		meta[metaFoodOrders] = string(b)
	}

	intent, err := s.bridge.CreateIntent(ctx, toCents(amount), s.currency, meta)
	if err != nil {
		return nil, err
	}
	return &IntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, nil
}

// priceSeats resolves the seat ids to either the table-seat or the
// grid-seat flow, validates event membership and availability, and
// returns the seat portion of the charge.
func (s *TicketingService) priceSeats(ctx context.Context, ev *model.Event, seatIDs []string) (string, decimal.Decimal, error) {
	details, err := s.tables.GetTableSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return "", decimal.Zero, mapStoreErr(err)
	}
	if len(details) > 0 {
		if len(details) != len(seatIDs) {
			return "", decimal.Zero, fmt.Errorf("%w: seat ids mix table seats with unknown seats", ErrInvalidRequest)
		}
		amount := decimal.Zero
		for _, d := range details {
			if d.TableEventID != ev.ID {
				return "", decimal.Zero, fmt.Errorf("%w: seat %s does not belong to event", ErrInvalidRequest, d.ID)
			}
			if d.Claimed() {
				return "", decimal.Zero, fmt.Errorf("%w: seat %s is already taken", ErrConflict, d.ID)
			}
			amount = amount.Add(ev.TicketPrice).Add(d.Price)
		}
		return qr.TypeTableSeat, amount, nil
	}

	seats, err := s.seats.GetSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return "", decimal.Zero, mapStoreErr(err)
	}
	if len(seats) != len(seatIDs) {
		return "", decimal.Zero, fmt.Errorf("%w: one or more seats do not exist", ErrNotFound)
	}
	amount := decimal.Zero
	for _, seat := range seats {
		if seat.EventID != ev.ID {
			return "", decimal.Zero, fmt.Errorf("%w: seat %s does not belong to event", ErrInvalidRequest, seat.ID)
		}
		if seat.IsOccupied {
			return "", decimal.Zero, fmt.Errorf("%w: seat %s is already taken", ErrConflict, seat.ID)
		}
		amount = amount.Add(ev.TicketPrice)
	}
	return qr.TypeSeat, amount, nil
}

// priceFood validates the food orders against the purchased seats and
// the catalog and returns their total.
func (s *TicketingService) priceFood(ctx context.Context, seatIDs []string, orders []model.FoodOrder) (decimal.Decimal, error) {
	if len(orders) == 0 {
		return decimal.Zero, nil
	}
	inPurchase := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		inPurchase[id] = true
	}
	var foodIDs []string
	for _, fo := range orders {
		if !inPurchase[fo.SeatID] {
			return decimal.Zero, fmt.Errorf("%w: food order references seat %s outside the purchase", ErrInvalidRequest, fo.SeatID)
		}
		for _, line := range fo.FoodItems {
			if line.Quantity < 1 {
				return decimal.Zero, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
			}
			foodIDs = append(foodIDs, line.FoodID)
		}
	}
	items, err := s.food.GetFoodItemsByIDs(ctx, foodIDs)
	if err != nil {
		return decimal.Zero, mapStoreErr(err)
	}
	byID := make(map[string]model.FoodItem, len(items))
	for _, f := range items {
		byID[f.ID] = f
	}
	total := decimal.Zero
	for _, fo := range orders {
		for _, line := range fo.FoodItems {
			f, ok := byID[line.FoodID]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: unknown food item %s", ErrNotFound, line.FoodID)
			}
			total = total.Add(f.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return total, nil
}

// ConfirmPayment finalises a ticket purchase. The processor is
// re-queried for the intent's real status; the seat set and food orders
// are recovered exclusively from the intent metadata frozen at creation
// time. The claim itself is a single conditional transaction: when any
// seat was taken in the meantime the whole confirmation fails with
// ErrConflict and nothing is written. Calling again for an intent whose
// tickets already exist returns those tickets unchanged.
func (s *TicketingService) ConfirmPayment(ctx context.Context, userID, intentID string) ([]model.Ticket, error) {
	if intentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrInvalidRequest)
	}
	ctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	intent, err := s.bridge.GetIntent(ctx, intentID)
	if err != nil {
		monitoring.TrackConfirmation("error")
		return nil, err
	}
	if intent.Status != payment.StatusSucceeded {
		monitoring.TrackConfirmation("not_settled")
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentNotSettled, intent.Status)
	}
	if owner := intent.Metadata[metaUserID]; owner != "" && owner != userID {
		return nil, ErrForbidden
	}

	// Idempotency: a previous call may have claimed and issued already.
	existing, err := s.tickets.ListTicketsByPaymentRef(ctx, intentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if len(existing) > 0 {
		monitoring.TrackConfirmation("success")
		return existing, nil
	}

	eventID := intent.Metadata[metaEventID]
	seatIDs := splitCSV(intent.Metadata[metaSeatIDs])
	if eventID == "" || len(seatIDs) == 0 {
		return nil, fmt.Errorf("%w: intent carries no seat metadata", ErrInvalidRequest)
	}
	var foodOrders []model.FoodOrder
	if raw := intent.Metadata[metaFoodOrders]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &foodOrders); err != nil {
			return nil, fmt.Errorf("%w: malformed food metadata", ErrInvalidRequest)
		}
	}
	foodBySeat := make(map[string][]repository.FoodDraft)
	for _, fo := range foodOrders {
		for _, line := range fo.FoodItems {
			foodBySeat[fo.SeatID] = append(foodBySeat[fo.SeatID], repository.FoodDraft{
				FoodItemID: line.FoodID,
				Quantity:   line.Quantity,
			})
		}
	}

	var tickets []model.Ticket
	switch intent.Metadata[metaTicketType] {
	case qr.TypeTableSeat:
		tickets, err = s.confirmTableSeats(ctx, userID, eventID, intentID, seatIDs, foodBySeat)
	default:
		tickets, err = s.confirmGridSeats(ctx, userID, eventID, intentID, seatIDs, foodBySeat)
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			monitoring.TrackConfirmation("conflict")
		} else {
			monitoring.TrackConfirmation("error")
		}
		return nil, err
	}

	monitoring.TrackConfirmation("success")
	monitoring.TrackTicketsIssued(len(tickets))
	s.notifyIssued(ctx, intent, userID, eventID, tickets)
	return tickets, nil
}

func (s *TicketingService) confirmGridSeats(ctx context.Context, userID, eventID, intentID string, seatIDs []string, foodBySeat map[string][]repository.FoodDraft) ([]model.Ticket, error) {
	seats, err := s.seats.GetSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if len(seats) != len(seatIDs) {
		return nil, fmt.Errorf("%w: one or more seats do not exist", ErrNotFound)
	}

	drafts := make([]repository.TicketDraft, 0, len(seats))
	for i := range seats {
		seat := seats[i]
		p := qr.NewPayload(qr.TypeSeat, eventID, userID, intentID)
		p.SeatID = seat.ID
		p.Row = seat.Row
		p.Column = seat.Column
		code, err := qr.Encode(p)
		if err != nil {
			return nil, err
		}
		seatID := seat.ID
		drafts = append(drafts, repository.TicketDraft{
			UserID:     userID,
			EventID:    eventID,
			SeatID:     &seatID,
			QRCode:     code,
			PaymentRef: intentID,
			Food:       foodBySeat[seat.ID],
		})
	}
	tickets, err := s.claims.ConfirmGridClaim(ctx, repository.GridClaim{SeatIDs: seatIDs, Tickets: drafts})
	return tickets, mapStoreErr(err)
}

func (s *TicketingService) confirmTableSeats(ctx context.Context, userID, eventID, intentID string, seatIDs []string, foodBySeat map[string][]repository.FoodDraft) ([]model.Ticket, error) {
	details, err := s.tables.GetTableSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if len(details) != len(seatIDs) {
		return nil, fmt.Errorf("%w: one or more seats do not exist", ErrNotFound)
	}
	tableID := details[0].TableID

	drafts := make([]repository.TicketDraft, 0, len(details))
	for i := range details {
		d := details[i]
		p := qr.NewPayload(qr.TypeTableSeat, eventID, userID, intentID)
		p.TableID = d.TableID
		p.TableName = d.TableName
		p.SeatIndex = d.Index
		p.TableSeatID = d.ID
		code, err := qr.Encode(p)
		if err != nil {
			return nil, err
		}
		tsID := d.ID
		drafts = append(drafts, repository.TicketDraft{
			UserID:      userID,
			EventID:     eventID,
			TableSeatID: &tsID,
			QRCode:      code,
			PaymentRef:  intentID,
			Food:        foodBySeat[d.ID],
		})
	}

	now := time.Now().UTC()
	claim := repository.TableClaim{
		Reservation: model.Reservation{
			UserID:           userID,
			EventID:          eventID,
			EventTableID:     &tableID,
			RequestedSeatIDs: seatIDs,
			PartySize:        len(seatIDs),
			Status:           model.ReservationConfirmed,
			Datetime:         now,
			ExpiresAt:        now,
		},
		TableID: tableID,
		SeatIDs: seatIDs,
		Tickets: drafts,
	}
	tickets, err := s.claims.ConfirmTableClaim(ctx, claim)
	return tickets, mapStoreErr(err)
}

// notifyIssued publishes the tickets.issued event. Best effort: broker
// failures are logged and never fail a committed confirmation.
func (s *TicketingService) notifyIssued(ctx context.Context, intent *payment.Intent, userID, eventID string, tickets []model.Ticket) {
	if s.publish == nil {
		return
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	ev := queue.TicketsIssuedEvent{
		PaymentRef:  intent.ID,
		UserID:      userID,
		EventID:     eventID,
		TicketIDs:   ids,
		SeatCount:   len(tickets),
		AmountCents: intent.AmountCents,
		IssuedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("ticketing: publish tickets.issued failed: %v", err)
	}
}

// VerifyResult is the door-scan outcome for one QR code.
type VerifyResult struct {
	Valid  bool          `json:"valid"`
	Reason string        `json:"reason,omitempty"`
	Ticket *model.Ticket `json:"ticket,omitempty"`
}

// Verify checks a scanned QR code and, when the ticket is PAID, claims
// it exactly once: of N concurrent scans of the same code only one
// reports valid. Garbage payloads and unknown codes both come back as
// ErrNotFound so a scanner cannot distinguish forged from missing.
func (s *TicketingService) Verify(ctx context.Context, qrCode string) (*VerifyResult, error) {
	if _, err := qr.Decode(qrCode); err != nil {
		monitoring.TrackVerification("not_found")
		return nil, fmt.Errorf("%w: unknown ticket", ErrNotFound)
	}
	t, err := s.tickets.GetTicketByQR(ctx, qrCode)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			monitoring.TrackVerification("not_found")
		}
		return nil, mapStoreErr(err)
	}

	switch t.Status {
	case model.TicketUsed:
		monitoring.TrackVerification("already_used")
		return &VerifyResult{Valid: false, Reason: "already used", Ticket: t}, nil
	case model.TicketCancelled:
		monitoring.TrackVerification("cancelled")
		return &VerifyResult{Valid: false, Reason: "cancelled", Ticket: t}, nil
	case model.TicketPaid:
		won, err := s.tickets.MarkTicketUsed(ctx, t.ID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if !won {
			monitoring.TrackVerification("already_used")
			return &VerifyResult{Valid: false, Reason: "already used", Ticket: t}, nil
		}
		t.Status = model.TicketUsed
		monitoring.TrackVerification("valid")
		return &VerifyResult{Valid: true, Ticket: t}, nil
	default:
		monitoring.TrackVerification("not_paid")
		return &VerifyResult{Valid: false, Reason: "not paid", Ticket: t}, nil
	}
}

// ListUserTickets returns the caller's tickets, oldest purchase first.
func (s *TicketingService) ListUserTickets(ctx context.Context, userID string) ([]model.Ticket, error) {
	ts, err := s.tickets.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return ts, nil
}

// PayOrder creates a payment intent for an existing food order and
// moves it to PROCESSING. Already-paid orders short-circuit with a nil
// IntentResult.
func (s *TicketingService) PayOrder(ctx context.Context, userID, orderID string) (*IntentResult, *model.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	if err := s.checkOrderOwner(ctx, userID, o); err != nil {
		return nil, nil, err
	}
	if o.Status == model.OrderPaid {
		return nil, o, nil
	}

	meta := map[string]string{
		metaUserID:  userID,
		metaOrderID: o.ID,
	}
	intent, err := s.bridge.CreateIntent(ctx, o.TotalCents, s.currency, meta)
	if err != nil {
		return nil, nil, err
	}
	if err := s.orders.MarkOrderProcessing(ctx, o.ID, intent.ID); err != nil {
		return nil, nil, mapStoreErr(err)
	}
	o.Status = model.OrderProcessing
	o.PaymentIntentID = &intent.ID
	return &IntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, o, nil
}

// ConfirmOrder settles a food order after payment. When the order hangs
// off a reservation, the reservation's requested seats are claimed
// conditionally in the same transaction that marks the order PAID and
// the reservation CONFIRMED.
func (s *TicketingService) ConfirmOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := s.checkOrderOwner(ctx, userID, o); err != nil {
		return nil, err
	}
	if o.Status == model.OrderPaid {
		return o, nil
	}
	if o.PaymentIntentID == nil {
		return nil, fmt.Errorf("%w: order has no payment intent", ErrInvalidRequest)
	}

	intent, err := s.bridge.GetIntent(ctx, *o.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentNotSettled, intent.Status)
	}

	var reservationID string
	var seatIDs []string
	if o.ReservationID != nil {
		r, err := s.resv.GetReservation(ctx, *o.ReservationID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		reservationID = r.ID
		seatIDs = r.RequestedSeatIDs
	}
	// reservationID may be empty: the claim then only marks the order.
	if err := s.claims.ClaimReservationSeats(ctx, o.ID, reservationID, seatIDs); err != nil {
		return nil, mapStoreErr(err)
	}
	o.Status = model.OrderPaid
	return o, nil
}

func (s *TicketingService) checkOrderOwner(ctx context.Context, userID string, o *model.Order) error {
	if o.ReservationID == nil {
		return nil
	}
	r, err := s.resv.GetReservation(ctx, *o.ReservationID)
	if err != nil {
		return mapStoreErr(err)
	}
	if r.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
