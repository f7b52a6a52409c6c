package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
)

func newWizard(backend *stubBackend, mock *clock.Mock, redirect RedirectFunc) *RegistrationWizard {
	return NewRegistrationWizard(backend, NewFormValidator(), RegistrationOptions{
		Clock:    mock,
		Redirect: redirect,
	}, zerolog.Nop())
}

func mustSet(t *testing.T, w *RegistrationWizard, field domain.RegistrationField, value string) {
	t.Helper()
	if err := w.SetField(field, value); err != nil {
		t.Fatalf("set %s: %v", field, err)
	}
}

func TestRegistrationWizard_EndToEnd(t *testing.T) {
	mock := clock.NewMock()
	backend := &stubBackend{}
	var sent domain.RegistrationDraft
	backend.registerFn = func(_ context.Context, d domain.RegistrationDraft) error {
		sent = d
		return nil
	}
	redirects := make(chan domain.Route, 1)
	w := newWizard(backend, mock, func(r domain.Route) { redirects <- r })

	// Step 1: blank name blocks.
	mustSet(t, w, domain.FieldName, "")
	mustSet(t, w, domain.FieldSurname, "X")
	if got := w.Advance(); got != domain.StepPersonal {
		t.Fatalf("expected to stay on step 1, got %d", got)
	}
	mustSet(t, w, domain.FieldName, "A")
	mustSet(t, w, domain.FieldSurname, "B")
	if got := w.Advance(); got != domain.StepIdentity {
		t.Fatalf("expected step 2, got %d", got)
	}

	// Step 2: twelve digits block, thirteen advance.
	mustSet(t, w, domain.FieldIDNumber, "123456789012")
	if got := w.Advance(); got != domain.StepIdentity {
		t.Fatalf("expected to stay on step 2, got %d", got)
	}
	mustSet(t, w, domain.FieldIDNumber, "1234567890123")
	if got := w.Advance(); got != domain.StepCredentials {
		t.Fatalf("expected step 3, got %d", got)
	}

	// Step 3: short password blocks submit.
	mustSet(t, w, domain.FieldEmail, "a@b.com")
	mustSet(t, w, domain.FieldPassword, "short")
	if w.CanSubmit() {
		t.Fatalf("short password must block submit")
	}
	if err := w.Submit(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.count("register") != 0 {
		t.Fatalf("invalid draft must not reach the backend")
	}

	mustSet(t, w, domain.FieldPassword, "longenough1")
	if !w.CanSubmit() {
		t.Fatalf("expected submit to be enabled")
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if backend.count("register") != 1 {
		t.Fatalf("expected exactly one register call, got %d", backend.count("register"))
	}
	want := domain.RegistrationDraft{Name: "A", Surname: "B", IDNumber: "1234567890123", Email: "a@b.com", Password: "longenough1"}
	if sent != want {
		t.Fatalf("unexpected draft sent: %+v", sent)
	}

	st := w.State()
	if !st.Submitted || st.Notice == nil || st.Notice.Text != msgRegistrationOK {
		t.Fatalf("expected submitted state with success notice, got %+v", st)
	}
	if st.Name != "" || st.HasPassword {
		t.Fatalf("draft must be discarded after submit, got %+v", st)
	}

	mock.Add(time.Second)
	if w.State().RedirectTo != "" {
		t.Fatalf("redirect must wait for the delay")
	}
	mock.Add(time.Second)
	select {
	case r := <-redirects:
		if r != domain.RouteLogin {
			t.Fatalf("expected redirect to /login, got %s", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("redirect was not scheduled")
	}
	if w.State().RedirectTo != domain.RouteLogin {
		t.Fatalf("expected redirectTo /login")
	}
}

func TestRegistrationWizard_TypeFiltersIDNumber(t *testing.T) {
	w := newWizard(&stubBackend{}, clock.NewMock(), nil)

	got, err := w.Type(domain.FieldIDNumber, "12a34")
	if err != nil {
		t.Fatalf("type: %v", err)
	}
	if got != "1234" {
		t.Fatalf("expected 1234, got %q", got)
	}

	got, _ = w.Type(domain.FieldIDNumber, "5678901234567890")
	if len(got) != domain.IDNumberLength || got != "1234567890123" {
		t.Fatalf("expected 13 digits kept, got %q", got)
	}
}

func TestRegistrationWizard_SetFieldRejectsInvalidID(t *testing.T) {
	w := newWizard(&stubBackend{}, clock.NewMock(), nil)
	mustSet(t, w, domain.FieldIDNumber, "12")

	for _, bad := range []string{"12a", "12345678901234", "-1"} {
		if err := w.SetField(domain.FieldIDNumber, bad); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected %q to be rejected, got %v", bad, err)
		}
	}
	if w.State().IDNumber != "12" {
		t.Fatalf("rejected input must keep the previous value")
	}
}

func TestRegistrationWizard_TypeOtherFields(t *testing.T) {
	w := newWizard(&stubBackend{}, clock.NewMock(), nil)
	_, _ = w.Type(domain.FieldName, "Ann")
	got, err := w.Type(domain.FieldName, "a 2")
	if err != nil || got != "Anna 2" {
		t.Fatalf("expected plain append, got %q %v", got, err)
	}
}

func TestRegistrationWizard_WhitespaceNameBlocks(t *testing.T) {
	w := newWizard(&stubBackend{}, clock.NewMock(), nil)
	mustSet(t, w, domain.FieldName, "   ")
	mustSet(t, w, domain.FieldSurname, "B")
	if w.CanAdvance() {
		t.Fatalf("blank name must block step 1")
	}
	err := w.ValidateStep(domain.StepPersonal)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestRegistrationWizard_RetreatAndBounds(t *testing.T) {
	w := newWizard(&stubBackend{}, clock.NewMock(), nil)
	if got := w.Retreat(); got != domain.StepPersonal {
		t.Fatalf("retreat from step 1 must stay, got %d", got)
	}
	mustSet(t, w, domain.FieldName, "A")
	mustSet(t, w, domain.FieldSurname, "B")
	w.Advance()

	// Going back needs no validation, even with an invalid later step.
	if got := w.Retreat(); got != domain.StepPersonal {
		t.Fatalf("expected step 1, got %d", got)
	}
	if w.State().Name != "A" {
		t.Fatalf("retreat must keep the draft")
	}
}

func TestRegistrationWizard_SubmitOnlyFromLastStep(t *testing.T) {
	backend := &stubBackend{}
	w := newWizard(backend, clock.NewMock(), nil)
	if err := w.Submit(context.Background()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if backend.count("register") != 0 {
		t.Fatalf("no backend call expected")
	}
}

func fillToLastStep(t *testing.T, w *RegistrationWizard) {
	t.Helper()
	mustSet(t, w, domain.FieldName, "A")
	mustSet(t, w, domain.FieldSurname, "B")
	w.Advance()
	mustSet(t, w, domain.FieldIDNumber, "1234567890123")
	w.Advance()
	mustSet(t, w, domain.FieldEmail, "a@b.com")
	mustSet(t, w, domain.FieldPassword, "longenough1")
}

func TestRegistrationWizard_SubmitFailureShowsServerMessage(t *testing.T) {
	backend := &stubBackend{registerFn: func(context.Context, domain.RegistrationDraft) error {
		return &domain.RequestError{Operation: "register", StatusCode: 409, Message: "Email already registered"}
	}}
	w := newWizard(backend, clock.NewMock(), nil)
	fillToLastStep(t, w)

	if err := w.Submit(context.Background()); !errors.Is(err, domain.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
	st := w.State()
	if st.Step != domain.StepCredentials || st.Submitted || st.Submitting {
		t.Fatalf("failure must stay on step 3, got %+v", st)
	}
	if st.Notice == nil || st.Notice.Kind != domain.NoticeError || st.Notice.Text != "Email already registered" {
		t.Fatalf("expected server message, got %+v", st.Notice)
	}
	if !w.CanSubmit() {
		t.Fatalf("submit must be retriable after a failure")
	}
}

func TestRegistrationWizard_SubmitFailureFallbackMessage(t *testing.T) {
	backend := &stubBackend{registerFn: func(context.Context, domain.RegistrationDraft) error {
		return &domain.RequestError{Operation: "register", Err: errors.New("connection refused")}
	}}
	w := newWizard(backend, clock.NewMock(), nil)
	fillToLastStep(t, w)

	_ = w.Submit(context.Background())
	if n := w.State().Notice; n == nil || n.Text != msgRegistrationFailed {
		t.Fatalf("expected fallback message, got %+v", n)
	}
}

func TestRegistrationWizard_ResubmitWhileInFlightIsRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &stubBackend{registerFn: func(context.Context, domain.RegistrationDraft) error {
		close(started)
		<-release
		return nil
	}}
	w := newWizard(backend, clock.NewMock(), nil)
	fillToLastStep(t, w)

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()
	<-started

	if err := w.Submit(context.Background()); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	if w.CanSubmit() || !w.State().Submitting {
		t.Fatalf("submit must be disabled while in flight")
	}
	if err := w.SetField(domain.FieldEmail, "x@y.z"); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("edits must be refused while submitting, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if backend.count("register") != 1 {
		t.Fatalf("expected one register call, got %d", backend.count("register"))
	}
}

func TestRegistrationWizard_NextGuestStartsFreshAfterRedirect(t *testing.T) {
	mock := clock.NewMock()
	redirects := make(chan domain.Route, 1)
	backend := &stubBackend{}
	w := newWizard(backend, mock, func(r domain.Route) { redirects <- r })
	fillToLastStep(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mock.Add(DefaultRedirectDelay)
	select {
	case <-redirects:
	case <-time.After(2 * time.Second):
		t.Fatalf("redirect was not scheduled")
	}

	st := w.State()
	if st.Step != domain.StepPersonal || st.Submitted || st.Name != "" || st.Notice != nil {
		t.Fatalf("expected an empty first step after the redirect, got %+v", st)
	}
	if st.RedirectTo != domain.RouteLogin {
		t.Fatalf("redirect target must stay visible until the next edit, got %q", st.RedirectTo)
	}

	if err := w.SetField(domain.FieldName, "Next"); err != nil {
		t.Fatalf("next guest must be able to edit: %v", err)
	}
	if st := w.State(); st.RedirectTo != "" || st.Name != "Next" {
		t.Fatalf("expected a fresh draft in use, got %+v", st)
	}

	fillToLastStep(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("second sign-up: %v", err)
	}
	if backend.count("register") != 2 {
		t.Fatalf("expected two register calls, got %d", backend.count("register"))
	}
}

func TestRegistrationWizard_ResetCancelsRedirect(t *testing.T) {
	mock := clock.NewMock()
	redirects := make(chan domain.Route, 1)
	w := newWizard(&stubBackend{}, mock, func(r domain.Route) { redirects <- r })
	fillToLastStep(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	w.Reset()
	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)

	select {
	case r := <-redirects:
		t.Fatalf("unexpected redirect to %s after reset", r)
	default:
	}
	st := w.State()
	if st.Step != domain.StepPersonal || st.Submitted || st.Notice != nil {
		t.Fatalf("expected fresh wizard, got %+v", st)
	}
}
