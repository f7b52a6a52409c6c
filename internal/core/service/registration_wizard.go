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
	// DefaultRedirectDelay is how long the success notice shows before the
	// wizard sends the user to the login page.
	DefaultRedirectDelay = 2 * time.Second

	msgRegistrationIncomplete = "All fields are required"
	msgRegistrationOK         = "Registration successful! Redirecting to login..."
	msgRegistrationFailed     = "Registration failed"
)

// RedirectFunc is invoked when a workflow wants the shell to navigate.
type RedirectFunc func(domain.Route)

type RegistrationOptions struct {
	Clock         clock.Clock
	RedirectDelay time.Duration
	Redirect      RedirectFunc
}

// RegistrationState is a snapshot of the wizard for rendering. The password
// is never included.
type RegistrationState struct {
	Step        domain.RegistrationStep `json:"step"`
	Name        string                  `json:"name"`
	Surname     string                  `json:"surname"`
	IDNumber    string                  `json:"idNumber"`
	Email       string                  `json:"email"`
	HasPassword bool                    `json:"hasPassword"`
	CanAdvance  bool                    `json:"canAdvance"`
	CanSubmit   bool                    `json:"canSubmit"`
	Submitting  bool                    `json:"submitting"`
	Submitted   bool                    `json:"submitted"`
	RedirectTo  domain.Route            `json:"redirectTo,omitempty"`
	Notice      *domain.Notice          `json:"notice,omitempty"`
}

// RegistrationWizard is the three-step sign-up state machine. Steps move
// forward only when the current step validates and backward freely; the
// accumulated draft is sent in a single create-account call.
type RegistrationWizard struct {
	backend  ports.AuthBackend
	validate *FormValidator
	notices  *NoticeBoard
	clock    clock.Clock
	delay    time.Duration
	redirect RedirectFunc
	log      zerolog.Logger

	mu            sync.Mutex
	draft         domain.RegistrationDraft
	step          domain.RegistrationStep
	submitting    bool
	submitted     bool
	redirectTo    domain.Route
	redirectTimer *clock.Timer
	gen           uint64
}

func NewRegistrationWizard(backend ports.AuthBackend, validate *FormValidator, opts RegistrationOptions, log zerolog.Logger) *RegistrationWizard {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	return &RegistrationWizard{
		backend:  backend,
		validate: validate,
		notices:  NewNoticeBoard(opts.Clock),
		clock:    opts.Clock,
		delay:    opts.RedirectDelay,
		redirect: opts.Redirect,
		log:      log,
		step:     domain.FirstRegistrationStep,
	}
}

// SetField replaces the value of field. An id number that is not all digits
// or longer than 13 characters is rejected and the stored value is kept.
func (w *RegistrationWizard) SetField(field domain.RegistrationField, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.beginEditLocked(); err != nil {
		return err
	}
	return w.draft.Set(field, value)
}

// Type appends text to field one character at a time, the way keystrokes
// arrive. Characters the field refuses are dropped, so typing "12a34" into
// the id number stores "1234". It returns the resulting value.
func (w *RegistrationWizard) Type(field domain.RegistrationField, text string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.beginEditLocked(); err != nil {
		return "", err
	}
	for _, r := range text {
		next := w.draft.Get(field) + string(r)
		if err := w.draft.Set(field, next); err != nil && field != domain.FieldIDNumber {
			return w.draft.Get(field), err
		}
	}
	return w.draft.Get(field), nil
}

func (w *RegistrationWizard) beginEditLocked() error {
	switch {
	case w.submitted:
		return fmt.Errorf("registration already submitted: %w", domain.ErrInvalidTransition)
	case w.submitting:
		return fmt.Errorf("registration: %w", domain.ErrConcurrencyConflict)
	}
	w.redirectTo = ""
	return nil
}

// ValidateStep checks the fields owned by step against the current draft.
func (w *RegistrationWizard) ValidateStep(step domain.RegistrationStep) error {
	w.mu.Lock()
	draft := w.draft
	w.mu.Unlock()
	return w.validateStep(draft, step)
}

func (w *RegistrationWizard) validateStep(draft domain.RegistrationDraft, step domain.RegistrationStep) error {
	fields := domain.StepFields(step)
	if fields == nil {
		return domain.NewValidationError("step", fmt.Sprintf("unknown registration step %d", step))
	}
	return w.validate.Partial(draft, fields...)
}

// CanAdvance reports whether the current step validates.
func (w *RegistrationWizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAdvanceLocked()
}

func (w *RegistrationWizard) canAdvanceLocked() bool {
	return !w.submitting && !w.submitted &&
		w.step < domain.LastRegistrationStep &&
		w.validateStep(w.draft, w.step) == nil
}

// Advance moves to the next step when the current one validates and is a
// no-op otherwise. It returns the step after the call.
func (w *RegistrationWizard) Advance() domain.RegistrationStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.canAdvanceLocked() {
		return w.step
	}
	w.step++
	metrics.WorkflowTransitionsTotal.WithLabelValues("registration", fmt.Sprintf("step_%d", w.step)).Inc()
	w.log.Debug().Int("step", int(w.step)).Msg("registration advanced")
	return w.step
}

// Retreat moves back one step without re-validating.
func (w *RegistrationWizard) Retreat() domain.RegistrationStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting || w.submitted || w.step <= domain.FirstRegistrationStep {
		return w.step
	}
	w.step--
	metrics.WorkflowTransitionsTotal.WithLabelValues("registration", fmt.Sprintf("step_%d", w.step)).Inc()
	w.log.Debug().Int("step", int(w.step)).Msg("registration retreated")
	return w.step
}

func (w *RegistrationWizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canSubmitLocked()
}

func (w *RegistrationWizard) canSubmitLocked() bool {
	return !w.submitting && !w.submitted &&
		w.step == domain.LastRegistrationStep &&
		w.validateStep(w.draft, w.step) == nil
}

// Submit sends the accumulated draft in one create-account call. On success
// the wizard becomes terminal, the draft is discarded and a redirect to the
// login page fires after the configured delay, returning the wizard to an
// empty first step. On failure the wizard stays at
// the last step with the server message on display.
func (w *RegistrationWizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		metrics.ConcurrencyConflictsTotal.WithLabelValues("register").Inc()
		return fmt.Errorf("register: %w", domain.ErrConcurrencyConflict)
	}
	if w.submitted || w.step != domain.LastRegistrationStep {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("register from step %d: %w", step, domain.ErrInvalidTransition)
	}
	if !w.draft.Complete() {
		w.notices.Post(domain.NoticeError, msgRegistrationIncomplete)
		w.mu.Unlock()
		return domain.NewValidationError("", msgRegistrationIncomplete)
	}
	if err := w.validate.Validate(w.draft); err != nil {
		w.mu.Unlock()
		return err
	}
	w.submitting = true
	w.notices.Clear()
	draft := w.draft
	gen := w.gen
	w.mu.Unlock()

	err := w.backend.Register(ctx, draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		// Reset while the call was in flight; its outcome has no surface.
		return err
	}
	w.submitting = false
	if err != nil {
		w.notices.Post(domain.NoticeError, domain.UserMessage(err, msgRegistrationFailed))
		w.log.Warn().Err(err).Msg("registration failed")
		return err
	}

	w.submitted = true
	w.draft = domain.RegistrationDraft{}
	w.notices.Post(domain.NoticeSuccess, msgRegistrationOK)
	w.redirectTimer = w.clock.AfterFunc(w.delay, func() { w.fireRedirect(gen) })

	metrics.WorkflowTransitionsTotal.WithLabelValues("registration", "submitted").Inc()
	w.log.Info().Msg("registration submitted")
	return nil
}

func (w *RegistrationWizard) fireRedirect(gen uint64) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	// The signed-up guest is on their way to the login page; the next guest
	// starts from an empty draft. redirectTo stays set until the first edit.
	w.redirectTimer = nil
	w.resetLocked()
	w.redirectTo = domain.RouteLogin
	redirect := w.redirect
	w.mu.Unlock()

	if redirect != nil {
		redirect(domain.RouteLogin)
	}
}

// Reset discards the draft and any pending redirect, returning to step 1.
func (w *RegistrationWizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *RegistrationWizard) resetLocked() {
	if w.redirectTimer != nil {
		w.redirectTimer.Stop()
		w.redirectTimer = nil
	}
	w.gen++
	w.draft = domain.RegistrationDraft{}
	w.step = domain.FirstRegistrationStep
	w.submitting = false
	w.submitted = false
	w.redirectTo = ""
	w.notices.Clear()
}

func (w *RegistrationWizard) State() RegistrationState {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := RegistrationState{
		Step:        w.step,
		Name:        w.draft.Name,
		Surname:     w.draft.Surname,
		IDNumber:    w.draft.IDNumber,
		Email:       w.draft.Email,
		HasPassword: w.draft.Password != "",
		CanAdvance:  w.canAdvanceLocked(),
		CanSubmit:   w.canSubmitLocked(),
		Submitting:  w.submitting,
		Submitted:   w.submitted,
		RedirectTo:  w.redirectTo,
	}
	if n, ok := w.notices.Current(); ok {
		st.Notice = &n
	}
	return st
}
