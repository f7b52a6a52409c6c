package ports

import (
	"context"

	"github.com/intbank/portal/internal/core/domain"
)

// SessionStore persists the token and role across restarts. Implementations
// write and clear both entries atomically; Load returns a zero Session when
// nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error
}

// TokenSource hands the current bearer token to the backend client.
type TokenSource interface {
	Token() string
}
