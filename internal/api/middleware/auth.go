package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intbank/portal/internal/core/domain"
)

// ContextKeyRole is the echo context key holding the signed-in domain.Role.
const ContextKeyRole = "role"

// SessionReader exposes the current portal session.
type SessionReader interface {
	Current() domain.Session
}

// Auth rejects requests while no session is signed in and injects the role
// into the context for RBAC.
func Auth(sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := sessions.Current()
			if !s.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			c.Set(ContextKeyRole, s.Role)
			return next(c)
		}
	}
}

// GuestOnly rejects requests while a session is signed in. The registration
// wizard is reachable only by guests.
func GuestOnly(sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sessions.Current().Authenticated() {
				return echo.NewHTTPError(http.StatusForbidden, "already signed in")
			}
			return next(c)
		}
	}
}
