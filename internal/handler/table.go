package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/repository"
	"github.com/gastrovia/ticketing/internal/service"
)

// TableHandler exposes floor plan administration (table CRUD, grid
// generation, capacity resizing) and the public seat availability view.
// Mutating routes are guarded by RequireRole middleware.
type TableHandler struct {
	Tables *service.TableService
	Events repository.EventStore
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables *service.TableService, events repository.EventStore) *TableHandler {
	if tables == nil || events == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Events: events}
}

// Create handles POST /v1/events/:id/tables.
func (h *TableHandler) Create(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body service.CreateTableInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.Tables.CreateTable(c.Request().Context(), eventID, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"table": t})
}

// Generate handles POST /v1/events/:id/tables/auto.  It lays out the
// requested number of auto-generated tables in a square-ish grid.
func (h *TableHandler) Generate(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Count         int `json:"count"`
		SeatsPerTable int `json:"seats_per_table"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tables, err := h.Tables.GenerateTables(c.Request().Context(), eventID, body.Count, body.SeatsPerTable)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tables": tables})
}

// List handles GET /v1/events/:id/tables.
func (h *TableHandler) List(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tables, err := h.Tables.ListTables(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tables})
}

// Update handles PATCH /v1/events/:id/tables/:tableID.  A capacity
// change executes the resize plan: shrinking removes the highest-index
// unclaimed seats and fails with 409 when claimed seats alone exceed
// the new capacity.
func (h *TableHandler) Update(c echo.Context) error {
	tableID := c.Param("tableID")
	if tableID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body service.UpdateTableInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.Tables.UpdateTable(c.Request().Context(), tableID, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"table": t})
}

// Delete handles DELETE /v1/events/:id/tables/:tableID.  Tables with
// any claimed seat cannot be deleted.
func (h *TableHandler) Delete(c echo.Context) error {
	tableID := c.Param("tableID")
	if tableID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.DeleteTable(c.Request().Context(), tableID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAvailableSeats handles GET /v1/events/:id/seats.  Only free grid
// seats are returned, ordered by row then column.
func (h *TableHandler) ListAvailableSeats(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetEvent(ctx, eventID); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	seats, err := h.Events.ListAvailableSeats(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}
