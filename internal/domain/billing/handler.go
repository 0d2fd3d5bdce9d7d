package billing

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
	read := api.Group("", auth.RequireRole("admin", "billing", "registrar"))
	read.GET("/invoices", h.ListInvoices)
	read.GET("/invoices/export", h.ExportInvoices)
	read.GET("/invoices/:id", h.GetInvoice)

	write := api.Group("", auth.RequireRole("admin", "billing"))
	write.POST("/invoices", h.AddInvoice)
	write.PATCH("/invoices/:id", h.CorrectInvoice)
}

// AddInvoice creates a manual ledger entry. The workflow endpoints create
// their own invoices; this path is for the billing desk's ad hoc charges.
func (h *Handler) AddInvoice(c echo.Context) error {
	var body struct {
		PatientName string     `json:"patient_name"`
		UHID        string     `json:"uhid"`
		Scheme      string     `json:"scheme"`
		Items       []LineItem `json:"items"`
		Tax         float64    `json:"tax"`
		Discount    float64    `json:"discount"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Scheme == "" {
		body.Scheme = SchemeGeneral
	}
	inv := NewInvoice(body.PatientName, body.UHID, body.Scheme, body.Items, body.Tax, body.Discount)
	created, err := h.svc.Add(c.Request().Context(), inv)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	invoices, err := h.svc.List(c.Request().Context(),
		c.QueryParam("uhid"), InvoiceStatus(c.QueryParam("status")))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	params := pagination.FromContext(c)
	start, end := params.Window(len(invoices))
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices[start:end], len(invoices), params))
}

func (h *Handler) CorrectInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in CorrectionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.Correct(c.Request().Context(), id, in)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, inv)
	case errors.Is(err, ErrInvoiceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) ExportInvoices(c echo.Context) error {
	invoices, err := h.svc.List(c.Request().Context(), "", "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	data, err := ExportXLSX(invoices)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.xlsx"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
