package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

const (
	msgLoginRequired = "Email and password are required"
	msgLoginFailed   = "Login failed"
)

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginState is what the sign-in surface renders.
type LoginState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Authenticator drives the sign-in form: it exchanges credentials for a
// token and hands token and role to the SessionManager.
type Authenticator struct {
	backend  ports.AuthBackend
	sessions *SessionManager
	validate *FormValidator
	log      zerolog.Logger

	mu      sync.Mutex
	loading bool
	lastErr string
}

func NewAuthenticator(backend ports.AuthBackend, sessions *SessionManager, validate *FormValidator, log zerolog.Logger) *Authenticator {
	return &Authenticator{backend: backend, sessions: sessions, validate: validate, log: log}
}

// Login signs in and returns the landing route for the granted role.
func (a *Authenticator) Login(ctx context.Context, form LoginForm) (domain.Route, error) {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		metrics.ConcurrencyConflictsTotal.WithLabelValues("login").Inc()
		return "", fmt.Errorf("login: %w", domain.ErrConcurrencyConflict)
	}
	if err := a.validate.Validate(form); err != nil {
		a.lastErr = msgLoginRequired
		a.mu.Unlock()
		return "", domain.NewValidationError("", msgLoginRequired)
	}
	a.loading = true
	a.lastErr = ""
	a.mu.Unlock()

	route, err := a.login(ctx, form)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		a.lastErr = domain.UserMessage(err, msgLoginFailed)
		a.log.Warn().Err(err).Msg("login failed")
		return "", err
	}
	return route, nil
}

func (a *Authenticator) login(ctx context.Context, form LoginForm) (domain.Route, error) {
	res, err := a.backend.Login(ctx, form.Email, form.Password)
	if err != nil {
		return "", err
	}
	role, err := domain.ParseRole(res.Role)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if err := a.sessions.Login(ctx, res.Token, role); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return "", fmt.Errorf("login: backend returned no token: %w", err)
		}
		return "", err
	}
	return domain.HomeRoute(role), nil
}

func (a *Authenticator) State() LoginState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return LoginState{Loading: a.loading, Error: a.lastErr}
}

// Reset clears the error shown on the sign-in form.
func (a *Authenticator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = ""
}
