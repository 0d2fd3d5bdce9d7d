package ward

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
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar", "billing"))
	read.GET("/wards", h.ListWards)
	read.GET("/wards/occupancy", h.FacilityOccupancy)
	read.GET("/wards/icu", h.ListICUWards)
	read.GET("/wards/:id", h.GetWard)
	read.GET("/wards/:id/free-beds", h.FreeBedCount)

	write := api.Group("", auth.RequireRole("admin", "nurse", "registrar"))
	write.POST("/wards", h.CreateWard)
	write.PATCH("/wards/:id/beds/:bedId/status", h.SetBedStatus)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) ListWards(c echo.Context) error {
	wards, err := h.svc.ListWards(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, wards)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "ward not found")
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) FreeBedCount(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.FreeBedCount(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "ward not found")
	}
	return c.JSON(http.StatusOK, map[string]int{"free_beds": n})
}

func (h *Handler) FacilityOccupancy(c echo.Context) error {
	occ, err := h.svc.FacilityOccupancy(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, occ)
}

func (h *Handler) ListICUWards(c echo.Context) error {
	wards, err := h.svc.ICUWards(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, wards)
}

func (h *Handler) SetBedStatus(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ward id")
	}
	bedID, err := uuid.Parse(c.Param("bedId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid bed id")
	}
	var body struct {
		Status    BedStatus  `json:"status"`
		PatientID *uuid.UUID `json:"patient_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	w, err := h.svc.SetBedStatus(c.Request().Context(), wardID, bedID, body.Status, body.PatientID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, w)
	case errors.Is(err, ErrWardNotFound), errors.Is(err, ErrBedNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBedOccupied), errors.Is(err, ErrPatientHasBed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
