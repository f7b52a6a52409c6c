package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

const (
	msgAdminAdded     = "New admin added successfully."
	msgAdminAddFailed = "Failed to add admin. Please try again."
)

// EnrollmentState is the add-admin form as rendered. The password is withheld.
type EnrollmentState struct {
	Name        string         `json:"name"`
	Surname     string         `json:"surname"`
	Email       string         `json:"email"`
	IDNumber    string         `json:"idNumber"`
	HasPassword bool           `json:"hasPassword"`
	Submitting  bool           `json:"submitting"`
	Notice      *domain.Notice `json:"notice,omitempty"`
}

type EnrollmentOptions struct {
	Clock     clock.Clock
	NoticeTTL time.Duration
}

// AdminEnrollment is the add-admin form. It is independent of the approval
// queue: success clears the form, failure keeps it populated.
type AdminEnrollment struct {
	backend  ports.AdminBackend
	validate *FormValidator
	notices  *NoticeBoard
	ttl      time.Duration
	log      zerolog.Logger

	mu         sync.Mutex
	form       ports.AdminRequest
	submitting bool
}

func NewAdminEnrollment(backend ports.AdminBackend, validate *FormValidator, opts EnrollmentOptions, log zerolog.Logger) *AdminEnrollment {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = DefaultNoticeTTL
	}
	return &AdminEnrollment{
		backend:  backend,
		validate: validate,
		notices:  NewNoticeBoard(opts.Clock),
		ttl:      opts.NoticeTTL,
		log:      log,
	}
}

// Edit replaces the form contents.
func (e *AdminEnrollment) Edit(form ports.AdminRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitting {
		return fmt.Errorf("add admin: %w", domain.ErrConcurrencyConflict)
	}
	e.form = form
	return nil
}

// Submit sends the form to the backend.
func (e *AdminEnrollment) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		metrics.ConcurrencyConflictsTotal.WithLabelValues("add_admin").Inc()
		return fmt.Errorf("add admin: %w", domain.ErrConcurrencyConflict)
	}
	if err := e.validate.Validate(e.form); err != nil {
		e.mu.Unlock()
		return err
	}
	e.submitting = true
	form := e.form
	e.mu.Unlock()

	err := e.backend.AddAdmin(ctx, form)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false
	if err != nil {
		e.notices.Post(domain.NoticeError, domain.UserMessage(err, msgAdminAddFailed))
		e.log.Error().Err(err).Msg("failed to add admin")
		return err
	}
	e.form = ports.AdminRequest{}
	e.notices.PostTransient(domain.NoticeSuccess, msgAdminAdded, e.ttl, nil)
	e.log.Info().Msg("admin added")
	return nil
}

func (e *AdminEnrollment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = ports.AdminRequest{}
	e.notices.Clear()
}

func (e *AdminEnrollment) State() EnrollmentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := EnrollmentState{
		Name:        e.form.Name,
		Surname:     e.form.Surname,
		Email:       e.form.Email,
		IDNumber:    e.form.IDNumber,
		HasPassword: e.form.Password != "",
		Submitting:  e.submitting,
	}
	if n, ok := e.notices.Current(); ok {
		st.Notice = &n
	}
	return st
}
