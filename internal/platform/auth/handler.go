package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	sessions *Sessions
	// users maps operator name to role. Operator provisioning is static
	// facility config, not a user-management feature.
	users map[string]string
}

func NewHandler(sessions *Sessions, users map[string]string) *Handler {
	return &Handler{sessions: sessions, users: users}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/auth/login", h.Login)
	e.POST("/api/v1/auth/logout", h.Logout)
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if expected, ok := h.users[body.Name]; ok && body.Role == "" {
		body.Role = expected
	}
	token, err := h.sessions.Issue(body.Name, body.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "role": body.Role})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.sessions.Clear(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
