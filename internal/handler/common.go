package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/service"
)

// getUserID extracts the authenticated user's id from echo.Context.
// JWTAuth stores the token subject under "user_id" as a string.
func getUserID(c echo.Context) (string, error) {
	v := c.Get("user_id")
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}

// writeError translates a service-layer error into the matching HTTP
// response. Anything outside the taxonomy becomes a 500 without
// leaking the underlying message.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPaymentNotSettled):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
