package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
)

const msgAccountLoadFailed = "Could not load data. Please try again."

// StatementLine is one transaction with its Credit/Debit label.
type StatementLine struct {
	domain.Transaction
	Direction string `json:"direction"`
}

// AccountOverview is the dashboard header.
type AccountOverview struct {
	Balance       string         `json:"balance"`
	AccountNumber string         `json:"accountNumber"`
	Loaded        bool           `json:"loaded"`
	Notice        *domain.Notice `json:"notice,omitempty"`
}

// AccountView is a read-only projection of the signed-in user's balance,
// transactions and profile. It is the reload target of the payment workflow.
type AccountView struct {
	backend ports.AccountBackend
	notices *NoticeBoard
	log     zerolog.Logger

	mu      sync.RWMutex
	summary domain.AccountSummary
	profile domain.Profile
	loaded  bool
}

func NewAccountView(backend ports.AccountBackend, log zerolog.Logger) *AccountView {
	return &AccountView{backend: backend, notices: NewNoticeBoard(nil), log: log}
}

// Reload fetches balance and profile concurrently. Both must succeed for the
// view to change.
func (v *AccountView) Reload(ctx context.Context) error {
	var (
		summary *domain.AccountSummary
		profile *domain.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = v.backend.BalanceAndTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = v.backend.Profile(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		v.notices.Post(domain.NoticeError, msgAccountLoadFailed)
		v.log.Error().Err(err).Msg("failed to load account data")
		return err
	}

	v.mu.Lock()
	v.summary, v.profile = domain.AccountSummary{}, domain.Profile{}
	if summary != nil {
		v.summary = *summary
	}
	if profile != nil {
		v.profile = *profile
	}
	v.loaded = true
	v.mu.Unlock()
	v.notices.Clear()
	return nil
}

func (v *AccountView) Overview() AccountOverview {
	v.mu.RLock()
	ov := AccountOverview{
		Balance:       v.summary.Balance.StringFixed(2),
		AccountNumber: v.profile.AccountNumber,
		Loaded:        v.loaded,
	}
	v.mu.RUnlock()
	if n, ok := v.notices.Current(); ok {
		ov.Notice = &n
	}
	return ov
}

// Statements lists every transaction in backend order.
func (v *AccountView) Statements() []StatementLine {
	v.mu.RLock()
	defer v.mu.RUnlock()
	lines := make([]StatementLine, 0, len(v.summary.Transactions))
	for _, tx := range v.summary.Transactions {
		lines = append(lines, StatementLine{Transaction: tx, Direction: tx.Direction()})
	}
	return lines
}

func (v *AccountView) Insights() domain.Insights {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return domain.SummarizeTransactions(v.summary.Transactions)
}

func (v *AccountView) Reset() {
	v.mu.Lock()
	v.summary = domain.AccountSummary{}
	v.profile = domain.Profile{}
	v.loaded = false
	v.mu.Unlock()
	v.notices.Clear()
}
