package pharmacy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hmis/hmis/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "pharmacist", "physician", "nurse"))
	read.GET("/pharmacy/stock", h.ListStock)

	write := api.Group("", auth.RequireRole("admin", "pharmacist"))
	write.POST("/pharmacy/stock", h.AddStock)
	write.DELETE("/pharmacy/stock/:id", h.RemoveStock)
	write.POST("/pharmacy/dispense", h.Dispense)
}

func (h *Handler) ListStock(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddStock(c echo.Context) error {
	var item StockItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.AddStock(c.Request().Context(), &item)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) RemoveStock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveStock(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "stock item not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Dispense(c echo.Context) error {
	var in DispenseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.Dispense(c.Request().Context(), in)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, inv)
	case errors.Is(err, ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrExpiredBatch):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
