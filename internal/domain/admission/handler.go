package admission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hmis/hmis/internal/domain/patient"
	"github.com/hmis/hmis/internal/domain/ward"
	"github.com/hmis/hmis/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	desk := api.Group("", auth.RequireRole("admin", "registrar", "nurse"))
	desk.POST("/admissions/opd", h.RegisterOPD)
	desk.POST("/admissions/ipd", h.AdmitIPD)
	desk.POST("/admissions/casualty", h.RegisterCasualty)

	clinical := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	clinical.POST("/admissions/:patientId/transfer-icu", h.TransferToICU)
	clinical.POST("/admissions/:patientId/discharge", h.Discharge)
}

func (h *Handler) RegisterOPD(c echo.Context) error {
	var in OPDInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.RegisterOPD(c.Request().Context(), in)
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) AdmitIPD(c echo.Context) error {
	var in IPDInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.AdmitIPD(c.Request().Context(), in)
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) RegisterCasualty(c echo.Context) error {
	var in CasualtyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.RegisterCasualty(c.Request().Context(), in)
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) TransferToICU(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var in TransferInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.PatientID = patientID
	res, err := h.svc.TransferToICU(c.Request().Context(), in)
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Discharge(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var in DischargeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.PatientID = patientID
	res, err := h.svc.Discharge(c.Request().Context(), in)
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func workflowError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, patient.ErrNotFound),
		errors.Is(err, ward.ErrWardNotFound),
		errors.Is(err, ward.ErrBedNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyAdmitted),
		errors.Is(err, ErrBedUnavailable),
		errors.Is(err, ward.ErrBedOccupied),
		errors.Is(err, ward.ErrPatientHasBed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
