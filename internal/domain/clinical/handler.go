package clinical

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
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "labtech"))
	read.GET("/clinical/lab-orders", h.ListLabOrders)
	read.GET("/clinical/rounds", h.ListRounds)
	read.GET("/clinical/ot-schedule", h.ListSchedule)

	api.POST("/clinical/lab-orders", h.OrderLab, auth.RequireRole("admin", "physician"))
	api.PATCH("/clinical/lab-orders/:id", h.SetLabStatus, auth.RequireRole("admin", "physician", "labtech"))
	api.POST("/clinical/rounds", h.AddRound, auth.RequireRole("admin", "physician", "nurse"))
	api.POST("/clinical/ot-schedule", h.BookTheatre, auth.RequireRole("admin", "physician"))
}

func (h *Handler) OrderLab(c echo.Context) error {
	var body struct {
		UHID      string `json:"uhid"`
		Test      string `json:"test"`
		OrderedBy string `json:"ordered_by"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.OrderedBy == "" {
		body.OrderedBy, _ = auth.UserFromContext(c.Request().Context())
	}
	order, err := h.svc.OrderLab(c.Request().Context(), body.UHID, body.Test, body.OrderedBy)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) SetLabStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status LabOrderStatus `json:"status"`
		Result string         `json:"result"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.SetLabStatus(c.Request().Context(), id, body.Status, body.Result)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, order)
	case errors.Is(err, ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) ListLabOrders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.LabOrders(c.Request().Context(), c.QueryParam("uhid")))
}

func (h *Handler) AddRound(c echo.Context) error {
	var body struct {
		UHID      string `json:"uhid"`
		Physician string `json:"physician"`
		Notes     string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Physician == "" {
		body.Physician, _ = auth.UserFromContext(c.Request().Context())
	}
	r, err := h.svc.AddRound(c.Request().Context(), body.UHID, body.Physician, body.Notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListRounds(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Rounds(c.Request().Context(), c.QueryParam("uhid")))
}

func (h *Handler) BookTheatre(c echo.Context) error {
	var b OTBooking
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	booked, err := h.svc.BookTheatre(c.Request().Context(), &b)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, booked)
	case errors.Is(err, ErrTheatreConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) ListSchedule(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Schedule(c.Request().Context(), c.QueryParam("theatre")))
}
