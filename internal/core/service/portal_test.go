package service

import (
	"context"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
)

func TestPortal_LogoutResetsWorkflows(t *testing.T) {
	backend := &stubBackend{}
	p := NewPortal(backend, &stubStore{}, PortalOptions{Clock: clock.NewMock()}, zerolog.Nop())
	defer p.Close()
	ctx := context.Background()

	if _, err := p.Auth.Login(ctx, LoginForm{Email: "a@b.co", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := p.Payments.Edit(domain.PaymentFields{
		RecipientEmail: "bob@example.com",
		SwiftCode:      "ABSAZAJJ",
		Amount:         "100",
		Currency:       "USD",
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := p.Payments.Preview(); err != nil {
		t.Fatalf("preview: %v", err)
	}
	_ = p.Enrollment.Edit(ports.AdminRequest{Name: "Ada"})
	_ = p.Account.Reload(ctx)

	if err := p.Sessions.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if st := p.Payments.State(); st.Intent.Stage != domain.StageEditing || st.Intent.Fields.RecipientEmail != "" {
		t.Fatalf("payment intent must be reset, got %+v", st.Intent)
	}
	if p.Enrollment.State().Name != "" {
		t.Fatalf("enrollment form must be reset")
	}
	if p.Account.Overview().Loaded {
		t.Fatalf("account view must be reset")
	}
}

func TestPortal_CloseStopsResets(t *testing.T) {
	p := NewPortal(&stubBackend{}, &stubStore{}, PortalOptions{Clock: clock.NewMock()}, zerolog.Nop())
	ctx := context.Background()
	_, _ = p.Auth.Login(ctx, LoginForm{Email: "a@b.co", Password: "pw"})
	_ = p.Enrollment.Edit(ports.AdminRequest{Name: "Ada"})

	p.Close()
	_ = p.Sessions.Logout(ctx)

	if p.Enrollment.State().Name != "Ada" {
		t.Fatalf("a closed portal must not react to session changes")
	}
}
