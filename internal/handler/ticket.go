package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/service"
)

// TicketHandler exposes the payment intent, confirmation and ticket
// verification endpoints.
type TicketHandler struct {
	Ticketing *service.TicketingService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(ticketing *service.TicketingService) *TicketHandler {
	if ticketing == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Ticketing: ticketing}
}

// CreatePaymentIntent handles POST /v1/tickets/payment-intent.  The
// purchase (seats, food, amount) is frozen into the intent's metadata
// here; confirmation later recovers it from the processor rather than
// trusting client input.
func (h *TicketHandler) CreatePaymentIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body service.CreateIntentInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Ticketing.CreatePaymentIntent(c.Request().Context(), userID, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"payment_intent_id": res.IntentID,
		"client_secret":     res.ClientSecret,
		"amount_cents":      res.AmountCents,
		"currency":          res.Currency,
	})
}

// ConfirmPayment handles POST /v1/tickets/confirm-payment.  The
// processor is re-queried for the intent's real status; a "succeeded"
// flag in the request body would be ignored.  Repeating the call for an
// already-confirmed intent returns the same tickets.
func (h *TicketHandler) ConfirmPayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tickets, err := h.Ticketing.ConfirmPayment(c.Request().Context(), userID, body.PaymentIntentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": tickets})
}

// Verify handles POST /v1/tickets/verify.  A PAID ticket is claimed
// exactly once; subsequent scans of the same code report it as already
// used.  Unknown and malformed codes both yield 404.
func (h *TicketHandler) Verify(c echo.Context) error {
	var body struct {
		QRCode string `json:"qr_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.QRCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code is required"})
	}
	res, err := h.Ticketing.Verify(c.Request().Context(), body.QRCode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListMy handles GET /v1/tickets/my.
func (h *TicketHandler) ListMy(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Ticketing.ListUserTickets(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
