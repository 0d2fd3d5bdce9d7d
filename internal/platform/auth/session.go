// Package auth issues and verifies operator session tokens and guards routes
// by role. Sessions are signed HMAC JWTs; the active session descriptor is
// mirrored to the snapshot store under the currentUser key so a restarted
// front end can restore its operator context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

type contextKey string

const (
	userNameKey contextKey = "user_name"
	userRoleKey contextKey = "user_role"
)

const sessionTTL = 12 * time.Hour

// Operator roles understood by the role guard. "admin" implies every other
// role.
var validRoles = map[string]bool{
	"admin":      true,
	"physician":  true,
	"nurse":      true,
	"registrar":  true,
	"billing":    true,
	"pharmacist": true,
	"labtech":    true,
}

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// SessionUser is the descriptor persisted under the currentUser key.
type SessionUser struct {
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	LoginAt  time.Time `json:"login_at"`
	Facility string    `json:"facility"`
}

type Sessions struct {
	secret   []byte
	facility string
	store    *kvstore.Store
}

func NewSessions(secret, facility string, store *kvstore.Store) *Sessions {
	return &Sessions{secret: []byte(secret), facility: facility, store: store}
}

// Issue creates a signed session token for the operator and mirrors the
// session descriptor to the snapshot store.
func (s *Sessions) Issue(name, role string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if !validRoles[role] {
		return "", fmt.Errorf("invalid role: %s", role)
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
		Name: name,
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	user := SessionUser{Name: name, Role: role, LoginAt: now, Facility: s.facility}
	if err := s.store.PutJSON(kvstore.KeyCurrentUser, user); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Clear removes the persisted session descriptor.
func (s *Sessions) Clear() error {
	return s.store.Delete(kvstore.KeyCurrentUser)
}

// Verify parses and validates a session token.
func (s *Sessions) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// Middleware authenticates requests via the Authorization bearer token and
// places the operator identity on the request context.
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := s.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}
			ctx := WithUser(c.Request().Context(), claims.Name, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevMiddleware grants every request admin access. Development only.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithUser(c.Request().Context(), "dev", "admin")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// WithUser stores the operator identity on the context.
func WithUser(ctx context.Context, name, role string) context.Context {
	ctx = context.WithValue(ctx, userNameKey, name)
	return context.WithValue(ctx, userRoleKey, role)
}

// UserFromContext returns the operator name and role, or empty strings when
// the request is unauthenticated.
func UserFromContext(ctx context.Context) (name, role string) {
	name, _ = ctx.Value(userNameKey).(string)
	role, _ = ctx.Value(userRoleKey).(string)
	return name, role
}
