package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health returns a health-check handler used by load balancers and
// monitoring systems.  It pings the database so a broken pool surfaces
// as 503 instead of a silent "ok".
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			if err := db.PingContext(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
