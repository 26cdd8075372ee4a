package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/service"
)

// ReservationHandler exposes the reservation hold and food order
// endpoints.  All methods assume JWT authentication has already been
// performed by middleware.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	if reservations == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// Create handles POST /v1/reservations.  It opens an advisory hold for
// the caller and returns the reservation with its informational price
// quote.  The hold never blocks other buyers: conflicting purchases
// are resolved at payment confirmation, not here.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body service.CreateReservationInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rq, err := h.Reservations.Create(c.Request().Context(), userID, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation": rq.Reservation,
		"quote":       rq.Quote,
		"expires_at":  rq.Reservation.ExpiresAt.Format(time.RFC3339),
	})
}

// ListMy handles GET /v1/reservations/my.
func (h *ReservationHandler) ListMy(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Reservations.Get(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// CreateOrder handles POST /v1/reservations/:id/order.  Line items are
// priced from the food catalog at creation time; the order total is
// fixed to their sum and never recomputed.
func (h *ReservationHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Items []service.OrderLineInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	o, err := h.Reservations.CreateOrder(c.Request().Context(), userID, id, body.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"order": o})
}
