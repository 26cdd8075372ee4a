package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/service"
)

// OrderHandler exposes the food order payment endpoints.
type OrderHandler struct {
	Ticketing *service.TicketingService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(ticketing *service.TicketingService) *OrderHandler {
	if ticketing == nil {
		panic("nil service passed to NewOrderHandler")
	}
	return &OrderHandler{Ticketing: ticketing}
}

// Pay handles POST /v1/orders/:id/pay.  An already-paid order
// short-circuits with a message instead of a second intent.
func (h *OrderHandler) Pay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	intent, order, err := h.Ticketing.PayOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	if intent == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "order already paid",
			"order":   order,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"payment_intent_id": intent.IntentID,
		"client_secret":     intent.ClientSecret,
		"amount_cents":      intent.AmountCents,
		"order":             order,
	})
}

// Confirm handles POST /v1/orders/:id/confirm.  When the order hangs
// off a reservation, its requested seats are claimed in the same
// transaction that marks the order paid; a lost seat race surfaces as
// 409 with nothing written.
func (h *OrderHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Ticketing.ConfirmOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}
