package referral

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
	grp := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	grp.GET("/referrals", h.ListReferrals)
	grp.GET("/referrals/:id", h.GetReferral)
	grp.POST("/referrals", h.CreateReferral)
	grp.PATCH("/referrals/:id/status", h.SetStatus)
	grp.DELETE("/referrals/:id", h.DeleteReferral)
}

func (h *Handler) CreateReferral(c echo.Context) error {
	var r Referral
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), &r)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetReferral(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListReferrals(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.List(c.Request().Context(), Status(c.QueryParam("status"))))
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.SetStatus(c.Request().Context(), id, body.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, r)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) DeleteReferral(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.NoContent(http.StatusNoContent)
}
