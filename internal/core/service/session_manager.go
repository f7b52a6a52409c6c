package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

// SessionManager owns the process-wide session. It is the only writer of the
// token and role; every other component reads them through it.
type SessionManager struct {
	store ports.SessionStore
	log   zerolog.Logger

	// writeMu serialises login, logout and restore, including their storage I/O.
	writeMu sync.Mutex

	mu          sync.RWMutex
	session     domain.Session
	subscribers map[int]func(domain.Session)
	nextSub     int
}

func NewSessionManager(store ports.SessionStore, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		store:       store,
		log:         log,
		subscribers: make(map[int]func(domain.Session)),
	}
}

// Login persists token and role, then marks the session authenticated. When
// persisting fails nothing changes.
func (m *SessionManager) Login(ctx context.Context, token string, role domain.Role) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError("token", "token is required")
	}
	if !role.Valid() {
		return fmt.Errorf("login: %w: %q", domain.ErrInvalidRole, role)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	s := domain.Session{Token: token, Role: role}
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("login: persist session: %w", err)
	}
	m.set(s)

	metrics.WorkflowTransitionsTotal.WithLabelValues("session", "authenticated").Inc()
	m.log.Info().Str("role", string(role)).Msg("session started")
	return nil
}

// Logout clears the stored and in-memory session. The in-memory session is
// cleared even when the store fails; the store error is returned.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	err := m.store.Clear(ctx)
	m.set(domain.Session{})

	metrics.WorkflowTransitionsTotal.WithLabelValues("session", "unauthenticated").Inc()
	if err != nil {
		m.log.Error().Err(err).Msg("failed to clear persisted session")
		return fmt.Errorf("logout: clear session: %w", err)
	}
	m.log.Info().Msg("session ended")
	return nil
}

// Restore adopts a persisted session on start-up without contacting the
// backend. The token is not validated here; an expired token surfaces as
// domain.ErrUnauthorized from the first authenticated call.
func (m *SessionManager) Restore(ctx context.Context) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.Authenticated() {
		return true, nil
	}

	stored, err := m.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !stored.Authenticated() {
		return false, nil
	}
	role, err := domain.ParseRole(string(stored.Role))
	if err != nil {
		m.log.Warn().Str("role", string(stored.Role)).Msg("ignoring persisted session with unknown role")
		return false, nil
	}
	m.set(domain.Session{Token: stored.Token, Role: role})

	metrics.WorkflowTransitionsTotal.WithLabelValues("session", "restored").Inc()
	m.log.Info().Str("role", string(role)).Msg("session restored")
	return true, nil
}

func (m *SessionManager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *SessionManager) Authenticated() bool {
	return m.Current().Authenticated()
}

// Token satisfies ports.TokenSource.
func (m *SessionManager) Token() string {
	return m.Current().Token
}

func (m *SessionManager) Role() domain.Role {
	return m.Current().Role
}

// Resolve returns the route shown for path under the current session.
func (m *SessionManager) Resolve(path string) domain.Route {
	return ResolveRoute(m.Current(), path)
}

// TokenExpiry reads the exp claim of a JWT token without verifying it. It
// reports false for opaque tokens or tokens without expiry.
func (m *SessionManager) TokenExpiry() (time.Time, bool) {
	token := m.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subscribe registers fn to be called after every session change. The
// returned function removes the subscription. fn runs while the change is
// still being applied and must not call Login, Logout or Restore.
func (m *SessionManager) Subscribe(fn func(domain.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *SessionManager) set(s domain.Session) {
	m.mu.Lock()
	m.session = s
	subs := make([]func(domain.Session), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
