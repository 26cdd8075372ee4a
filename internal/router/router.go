package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gastrovia/ticketing/internal/config"
	"github.com/gastrovia/ticketing/internal/handler"
	"github.com/gastrovia/ticketing/internal/middleware"
)

// Handlers bundles everything RegisterRoutes needs to wire the API.
type Handlers struct {
	Reservations *handler.ReservationHandler
	Tickets      *handler.TicketHandler
	Orders       *handler.OrderHandler
	Tables       *handler.TableHandler
}

// RegisterRoutes registers the full HTTP surface on the provided Echo
// instance.  Health and metrics are unauthenticated; everything under
// /v1 requires a valid JWT, and floor plan administration additionally
// requires the ADMIN or OWNER role.  The hold and payment routes are
// rate limited, and the read-only availability views go through the
// Redis response cache.
func RegisterRoutes(e *echo.Echo, h Handlers, db *sql.DB, rdb *redis.Client, jwtSecret string) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Availability views are public reads: guests browse the floor plan
	// before authenticating.  Short-TTL cached; staleness is harmless
	// because only the confirmation claim is authoritative.
	e.GET("/v1/events/:id/seats", h.Tables.ListAvailableSeats, cache)
	e.GET("/v1/events/:id/tables", h.Tables.List, cache)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	auth.POST("/reservations", h.Reservations.Create, limiter)
	auth.GET("/reservations/my", h.Reservations.ListMy)
	auth.GET("/reservations/:id", h.Reservations.Get)
	auth.POST("/reservations/:id/order", h.Reservations.CreateOrder)

	auth.POST("/orders/:id/pay", h.Orders.Pay, limiter)
	auth.POST("/orders/:id/confirm", h.Orders.Confirm, limiter)

	auth.POST("/tickets/payment-intent", h.Tickets.CreatePaymentIntent, limiter)
	auth.POST("/tickets/confirm-payment", h.Tickets.ConfirmPayment, limiter)
	auth.POST("/tickets/verify", h.Tickets.Verify)
	auth.GET("/tickets/my", h.Tickets.ListMy)

	admin := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN", "OWNER"))
	admin.POST("/events/:id/tables", h.Tables.Create)
	admin.POST("/events/:id/tables/auto", h.Tables.Generate)
	admin.PATCH("/events/:id/tables/:tableID", h.Tables.Update)
	admin.DELETE("/events/:id/tables/:tableID", h.Tables.Delete)
}
