// Package middleware provides the request-processing chain: session
// authentication, role enforcement, request ids and login rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/auth"
	"github.com/autonow/autonow-backend/internal/model"
)

// Context keys set by the session middlewares.
const (
	CtxUser         = "user"
	CtxDriver       = "driver"
	CtxRole         = "role"
	CtxSessionToken = "session_token"
)

// bearerToken pulls the opaque session token out of the Authorization
// header. Empty when the header is missing or malformed.
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// UserSession authenticates requests with a user session token. The token
// is not a signed credential: validity is a lookup against the sessions
// collection (active and unexpired), so revocation is immediate. The
// resolved user and role land in the request context.
func UserSession(a *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sess, err := a.Sessions.ActiveByToken(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
			}
			u, err := a.Users.ByID(c.Request().Context(), sess.UserID)
			if err != nil || !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
			}
			c.Set(CtxUser, u)
			c.Set(CtxRole, u.Role)
			c.Set(CtxSessionToken, token)
			return next(c)
		}
	}
}

// DriverSession authenticates requests with a driver session token.
func DriverSession(a *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			sess, err := a.DriverSessions.ActiveByToken(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
			}
			d, err := a.Drivers.ByID(c.Request().Context(), sess.DriverID)
			if err != nil || !d.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
			}
			c.Set(CtxDriver, d)
			c.Set(CtxRole, model.RoleDriver)
			c.Set(CtxSessionToken, token)
			return next(c)
		}
	}
}
