package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hmis/hmis/internal/platform/auth"
	"github.com/hmis/hmis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar", "billing"))
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:id", h.GetPatient)
	read.GET("/patients/uhid/:uhid", h.GetByUHID)

	write := api.Group("", auth.RequireRole("admin", "registrar", "nurse"))
	write.POST("/patients", h.RegisterPatient)
	write.PUT("/patients/:id", h.UpdatePatient)

	api.DELETE("/patients/:id", h.DeletePatient, auth.RequireRole("admin"))
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Register(c.Request().Context(), &p)
	if err != nil {
		if errors.Is(err, ErrDuplicateUHID) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByUHID(c echo.Context) error {
	p, err := h.svc.GetByUHID(c.Request().Context(), c.Param("uhid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	f := Filter{
		Type:   PatientType(c.QueryParam("type")),
		Status: PatientStatus(c.QueryParam("status")),
		Query:  c.QueryParam("q"),
	}
	patients, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	params := pagination.FromContext(c)
	start, end := params.Window(len(patients))
	return c.JSON(http.StatusOK, pagination.NewResponse(patients[start:end], len(patients), params))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	updated, err := h.svc.Update(c.Request().Context(), &p)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, updated)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.NoContent(http.StatusNoContent)
}
