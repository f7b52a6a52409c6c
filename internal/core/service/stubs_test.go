package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubBackend struct {
	mu    sync.Mutex
	calls map[string]int

	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	registerFn func(ctx context.Context, draft domain.RegistrationDraft) error
	paymentFn  func(ctx context.Context, req ports.PaymentRequest) error
	pendingFn  func(ctx context.Context) ([]domain.PendingPayment, error)
	approveFn  func(ctx context.Context, id primitive.ObjectID) error
	rejectFn   func(ctx context.Context, id primitive.ObjectID) error
	addAdminFn func(ctx context.Context, req ports.AdminRequest) error
	balanceFn  func(ctx context.Context) (*domain.AccountSummary, error)
	profileFn  func(ctx context.Context) (*domain.Profile, error)
}

func (b *stubBackend) record(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[op]++
}

func (b *stubBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *stubBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	b.record("login")
	if b.loginFn == nil {
		return &ports.LoginResult{Token: "tok", Role: "user"}, nil
	}
	return b.loginFn(ctx, email, password)
}

func (b *stubBackend) Register(ctx context.Context, draft domain.RegistrationDraft) error {
	b.record("register")
	if b.registerFn == nil {
		return nil
	}
	return b.registerFn(ctx, draft)
}

func (b *stubBackend) CreatePayment(ctx context.Context, req ports.PaymentRequest) error {
	b.record("create_payment")
	if b.paymentFn == nil {
		return nil
	}
	return b.paymentFn(ctx, req)
}

func (b *stubBackend) PendingPayments(ctx context.Context) ([]domain.PendingPayment, error) {
	b.record("pending")
	if b.pendingFn == nil {
		return nil, nil
	}
	return b.pendingFn(ctx)
}

func (b *stubBackend) ApprovePayment(ctx context.Context, id primitive.ObjectID) error {
	b.record("approve")
	if b.approveFn == nil {
		return nil
	}
	return b.approveFn(ctx, id)
}

func (b *stubBackend) RejectPayment(ctx context.Context, id primitive.ObjectID) error {
	b.record("reject")
	if b.rejectFn == nil {
		return nil
	}
	return b.rejectFn(ctx, id)
}

func (b *stubBackend) AddAdmin(ctx context.Context, req ports.AdminRequest) error {
	b.record("add_admin")
	if b.addAdminFn == nil {
		return nil
	}
	return b.addAdminFn(ctx, req)
}

func (b *stubBackend) BalanceAndTransactions(ctx context.Context) (*domain.AccountSummary, error) {
	b.record("balance")
	if b.balanceFn == nil {
		return &domain.AccountSummary{}, nil
	}
	return b.balanceFn(ctx)
}

func (b *stubBackend) Profile(ctx context.Context) (*domain.Profile, error) {
	b.record("profile")
	if b.profileFn == nil {
		return &domain.Profile{}, nil
	}
	return b.profileFn(ctx)
}

type stubStore struct {
	mu       sync.Mutex
	session  domain.Session
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

func (s *stubStore) Load(context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.loadErr
}

func (s *stubStore) Save(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.session = sess
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.session = domain.Session{}
	return nil
}

type stubReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubReloader) Reload(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *stubReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// waitFor polls cond until it holds. Mock clock callbacks run on their own
// goroutine, so their effects are observed asynchronously.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
