package bloodbank

import (
	"errors"
	"net/http"

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
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "labtech"))
	read.GET("/blood-bank/stock", h.Stock)
	read.GET("/blood-bank/movements", h.ListMovements)

	write := api.Group("", auth.RequireRole("admin", "labtech", "nurse"))
	write.POST("/blood-bank/donations", h.RecordDonation)
	write.POST("/blood-bank/issues", h.Issue)
}

func (h *Handler) Stock(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stock(c.Request().Context()))
}

func (h *Handler) ListMovements(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Movements(c.Request().Context()))
}

func (h *Handler) RecordDonation(c echo.Context) error {
	var body struct {
		Group string `json:"group"`
		Donor string `json:"donor"`
		Units int    `json:"units"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.RecordDonation(c.Request().Context(), body.Group, body.Donor, body.Units)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) Issue(c echo.Context) error {
	var body struct {
		Group string `json:"group"`
		UHID  string `json:"uhid"`
		Units int    `json:"units"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.Issue(c.Request().Context(), body.Group, body.UHID, body.Units)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, st)
	case errors.Is(err, ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
