package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hmis/hmis/internal/platform/auth"
)

// Audit logs every mutating request with the operator identity: who changed
// what, when, from where. Reads are not audited.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead {
				return next(c)
			}

			err := next(c)

			name, role := auth.UserFromContext(req.Context())
			rid, _ := c.Get("request_id").(string)
			logger.Info().
				Str("request_id", rid).
				Str("operator", name).
				Str("role", role).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Time("at", time.Now().UTC()).
				Msg("audit")

			return err
		}
	}
}
