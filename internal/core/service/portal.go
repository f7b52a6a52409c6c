package service

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
)

type PortalOptions struct {
	Clock         clock.Clock
	NoticeTTL     time.Duration
	RedirectDelay time.Duration
	// Rates overrides DefaultRates when set.
	Rates    map[domain.Currency]decimal.Decimal
	Redirect RedirectFunc
}

// Portal wires one session and one instance of every workflow, the way a
// single browser tab holds them.
type Portal struct {
	Sessions     *SessionManager
	Auth         *Authenticator
	Registration *RegistrationWizard
	Payments     *PaymentWorkflow
	Approvals    *ApprovalQueue
	Enrollment   *AdminEnrollment
	Account      *AccountView
	Converter    *CurrencyConverter
	Validator    *FormValidator

	unsubscribe func()
}

func NewPortal(backend ports.Backend, store ports.SessionStore, opts PortalOptions, log zerolog.Logger) *Portal {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	validate := NewFormValidator()
	converter := NewCurrencyConverter(opts.Rates)
	sessions := NewSessionManager(store, log.With().Str("component", "session").Logger())
	account := NewAccountView(backend, log.With().Str("component", "account").Logger())

	p := &Portal{
		Sessions: sessions,
		Auth:     NewAuthenticator(backend, sessions, validate, log.With().Str("component", "auth").Logger()),
		Registration: NewRegistrationWizard(backend, validate, RegistrationOptions{
			Clock:         opts.Clock,
			RedirectDelay: opts.RedirectDelay,
			Redirect:      opts.Redirect,
		}, log.With().Str("component", "registration").Logger()),
		Payments: NewPaymentWorkflow(backend, converter, validate, PaymentOptions{
			Clock:     opts.Clock,
			NoticeTTL: opts.NoticeTTL,
			Reloader:  account,
		}, log.With().Str("component", "payment").Logger()),
		Approvals: NewApprovalQueue(backend, ApprovalOptions{
			Clock:     opts.Clock,
			NoticeTTL: opts.NoticeTTL,
		}, log.With().Str("component", "approvals").Logger()),
		Enrollment: NewAdminEnrollment(backend, validate, EnrollmentOptions{
			Clock:     opts.Clock,
			NoticeTTL: opts.NoticeTTL,
		}, log.With().Str("component", "enrollment").Logger()),
		Account:   account,
		Converter: converter,
		Validator: validate,
	}
	p.unsubscribe = sessions.Subscribe(func(s domain.Session) {
		if !s.Authenticated() {
			p.reset()
		}
	})
	return p
}

// reset drops every piece of per-user state held by the workflows.
func (p *Portal) reset() {
	p.Auth.Reset()
	p.Registration.Reset()
	p.Payments.Reset()
	p.Approvals.Reset()
	p.Enrollment.Reset()
	p.Account.Reset()
}

// Close detaches the portal from session changes.
func (p *Portal) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}
