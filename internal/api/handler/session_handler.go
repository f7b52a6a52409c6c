package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/service"
)

// SessionService is the session surface used by the handler.
type SessionService interface {
	Current() domain.Session
	Logout(ctx context.Context) error
	TokenExpiry() (time.Time, bool)
}

// LoginService submits the sign-in form.
type LoginService interface {
	Login(ctx context.Context, form service.LoginForm) (domain.Route, error)
	State() service.LoginState
}

// DraftDiscarder drops an unfinished sign-up draft.
type DraftDiscarder interface {
	Reset()
}

type SessionHandler struct {
	sessions SessionService
	auth     LoginService
	drafts   DraftDiscarder
}

// NewSessionHandler builds the session handler. drafts may be nil; when set,
// navigating anywhere but the sign-up form discards its draft.
func NewSessionHandler(sessions SessionService, auth LoginService, drafts DraftDiscarder) *SessionHandler {
	return &SessionHandler{sessions: sessions, auth: auth, drafts: drafts}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	Role          domain.Role        `json:"role,omitempty"`
	Home          domain.Route       `json:"home"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	Login         service.LoginState `json:"login"`
}

type redirectResponse struct {
	Redirect domain.Route `json:"redirect"`
	Role     domain.Role  `json:"role,omitempty"`
}

type navigateResponse struct {
	Requested string       `json:"requested"`
	Route     domain.Route `json:"route"`
}

// Get returns the current session.
func (h *SessionHandler) Get(c echo.Context) error {
	s := h.sessions.Current()
	resp := sessionResponse{
		Authenticated: s.Authenticated(),
		Home:          domain.RouteLanding,
		Login:         h.auth.State(),
	}
	if resp.Authenticated {
		resp.Role = s.Role
		resp.Home = domain.HomeRoute(s.Role)
		if exp, ok := h.sessions.TokenExpiry(); ok {
			resp.ExpiresAt = &exp
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Login exchanges credentials for a session and returns the landing route.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	route, err := h.auth.Login(c.Request().Context(), service.LoginForm{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, redirectResponse{Redirect: route, Role: h.sessions.Current().Role})
}

// Logout ends the session. The in-memory session is gone even when the
// persisted copy could not be cleared.
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, redirectResponse{Redirect: domain.RouteLanding})
}

// Navigate resolves the route shown for ?path= under the current session.
func (h *SessionHandler) Navigate(c echo.Context) error {
	path := c.QueryParam("path")
	route := service.ResolveRoute(h.sessions.Current(), path)
	if route != domain.RouteRegister && h.drafts != nil {
		h.drafts.Reset()
	}
	return c.JSON(http.StatusOK, navigateResponse{Requested: path, Route: route})
}
