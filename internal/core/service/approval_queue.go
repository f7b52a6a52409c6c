package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

const (
	msgFetchPendingFailed = "Failed to fetch pending payments. Please try again."
)

// approvalAction names one admin decision and its fixed notices.
type approvalAction struct {
	name     string
	ok       string
	fallback string
}

var (
	actionApprove = approvalAction{
		name:     "approve",
		ok:       "Payment approved successfully.",
		fallback: "Failed to approve payment. Please try again.",
	}
	actionReject = approvalAction{
		name:     "reject",
		ok:       "Payment rejected successfully.",
		fallback: "Failed to reject payment. Please try again.",
	}
)

// ActionLock is the set of payment ids with an approve or reject in flight.
type ActionLock struct {
	mu  sync.Mutex
	ids map[primitive.ObjectID]struct{}
}

func NewActionLock() *ActionLock {
	return &ActionLock{ids: make(map[primitive.ObjectID]struct{})}
}

// TryAcquire adds id to the set. It reports false if id was already held.
func (l *ActionLock) TryAcquire(id primitive.ObjectID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.ids[id]; held {
		return false
	}
	l.ids[id] = struct{}{}
	return true
}

func (l *ActionLock) Release(id primitive.ObjectID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

func (l *ActionLock) Held(id primitive.ObjectID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.ids[id]
	return held
}

// QueueItem is a pending payment as rendered, with its lock state.
type QueueItem struct {
	domain.PendingPayment
	Locked bool `json:"locked"`
}

// QueueState is a snapshot of the approval queue for rendering.
type QueueState struct {
	Items   []QueueItem    `json:"items"`
	Loading bool           `json:"loading"`
	Notice  *domain.Notice `json:"notice,omitempty"`
}

type ApprovalOptions struct {
	Clock     clock.Clock
	NoticeTTL time.Duration
}

// ApprovalQueue is the admin list of pending payments. Approve and reject are
// serialised per payment id by an ActionLock; actions on different ids may
// run concurrently. Every settled action is followed by a full refresh.
type ApprovalQueue struct {
	backend ports.AdminBackend
	lock    *ActionLock
	notices *NoticeBoard
	ttl     time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	items    []domain.PendingPayment
	inflight int
}

func NewApprovalQueue(backend ports.AdminBackend, opts ApprovalOptions, log zerolog.Logger) *ApprovalQueue {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = DefaultNoticeTTL
	}
	return &ApprovalQueue{
		backend: backend,
		lock:    NewActionLock(),
		notices: NewNoticeBoard(opts.Clock),
		ttl:     opts.NoticeTTL,
		log:     log,
	}
}

// Refresh replaces the local list with the backend's pending payments.
// Overlapping refreshes are not merged; the last one to settle wins.
func (q *ApprovalQueue) Refresh(ctx context.Context) error {
	q.mu.Lock()
	q.inflight++
	q.mu.Unlock()

	payments, err := q.backend.PendingPayments(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if err != nil {
		q.notices.Post(domain.NoticeError, msgFetchPendingFailed)
		q.log.Error().Err(err).Msg("failed to fetch pending payments")
		return fmt.Errorf("refresh pending payments: %w", err)
	}

	items := make([]domain.PendingPayment, 0, len(payments))
	for _, p := range payments {
		if p.AwaitingDecision() {
			items = append(items, p)
		}
	}
	q.items = items
	metrics.PendingPaymentsQueued.Set(float64(len(items)))
	q.log.Debug().Int("count", len(items)).Msg("pending payments refreshed")
	return nil
}

// Approve asks the backend to approve id. It returns
// domain.ErrConcurrencyConflict without a backend call while another action
// on id is in flight.
func (q *ApprovalQueue) Approve(ctx context.Context, id primitive.ObjectID) error {
	return q.act(ctx, id, actionApprove, q.backend.ApprovePayment)
}

// Reject asks the backend to reject id, under the same lock as Approve.
func (q *ApprovalQueue) Reject(ctx context.Context, id primitive.ObjectID) error {
	return q.act(ctx, id, actionReject, q.backend.RejectPayment)
}

func (q *ApprovalQueue) act(ctx context.Context, id primitive.ObjectID, action approvalAction, call func(context.Context, primitive.ObjectID) error) error {
	if !q.lock.TryAcquire(id) {
		metrics.ConcurrencyConflictsTotal.WithLabelValues(action.name).Inc()
		q.log.Debug().Str("payment_id", id.Hex()).Str("action", action.name).Msg("action suppressed, payment locked")
		return fmt.Errorf("%s payment %s: %w", action.name, id.Hex(), domain.ErrConcurrencyConflict)
	}

	err := call(ctx, id)
	q.lock.Release(id)

	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues(action.name, "error").Inc()
		q.notices.Post(domain.NoticeError, domain.UserMessage(err, action.fallback))
		q.log.Error().Err(err).Str("payment_id", id.Hex()).Str("action", action.name).Msg("approval action failed")
	} else {
		metrics.ApprovalActionsTotal.WithLabelValues(action.name, "ok").Inc()
		q.notices.PostTransient(domain.NoticeSuccess, action.ok, q.ttl, nil)
		q.log.Info().Str("payment_id", id.Hex()).Str("action", action.name).Msg("approval action settled")
	}

	// The refresh failure has its own notice; the action result is what the
	// caller asked about.
	if rerr := q.Refresh(ctx); rerr != nil && err == nil {
		q.log.Warn().Err(rerr).Msg("refresh after approval action failed")
	}
	return err
}

// Locked reports whether id has an action in flight.
func (q *ApprovalQueue) Locked(id primitive.ObjectID) bool {
	return q.lock.Held(id)
}

func (q *ApprovalQueue) Items() []domain.PendingPayment {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.PendingPayment, len(q.items))
	copy(out, q.items)
	return out
}

func (q *ApprovalQueue) State() QueueState {
	items := q.Items()
	st := QueueState{Items: make([]QueueItem, 0, len(items))}
	for _, p := range items {
		st.Items = append(st.Items, QueueItem{PendingPayment: p, Locked: q.lock.Held(p.ID)})
	}
	q.mu.Lock()
	st.Loading = q.inflight > 0
	q.mu.Unlock()
	if n, ok := q.notices.Current(); ok {
		st.Notice = &n
	}
	return st
}

// Reset empties the local list and clears the notice. Locks held by in-flight
// actions are released when those actions settle.
func (q *ApprovalQueue) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	q.notices.Clear()
	metrics.PendingPaymentsQueued.Set(0)
}
