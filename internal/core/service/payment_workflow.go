package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

// DefaultNoticeTTL is how long a success notice stays up.
const DefaultNoticeTTL = 10 * time.Second

const (
	msgPaymentSent   = "Payment request sent to admin for approval."
	msgPaymentFailed = "Failed to create payment"
)

// Reloader refetches data that a workflow transition has made stale.
type Reloader interface {
	Reload(ctx context.Context) error
}

type PaymentOptions struct {
	Clock     clock.Clock
	NoticeTTL time.Duration
	// Reloader runs after a payment is accepted by the backend.
	Reloader Reloader
}

// PaymentState is a snapshot of the workflow for rendering.
type PaymentState struct {
	Intent     domain.PaymentIntent `json:"intent"`
	Submitting bool                 `json:"submitting"`
	Notice     *domain.Notice       `json:"notice,omitempty"`
}

// PaymentWorkflow drives one payment intent through
// Editing -> PreviewConfirm -> Submitted. Cancel is the only backward edge.
type PaymentWorkflow struct {
	backend   ports.PaymentBackend
	converter *CurrencyConverter
	validate  *FormValidator
	notices   *NoticeBoard
	reloader  Reloader
	ttl       time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	intent     domain.PaymentIntent
	submitting bool
	gen        uint64
}

func NewPaymentWorkflow(backend ports.PaymentBackend, converter *CurrencyConverter, validate *FormValidator, opts PaymentOptions, log zerolog.Logger) *PaymentWorkflow {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = DefaultNoticeTTL
	}
	return &PaymentWorkflow{
		backend:   backend,
		converter: converter,
		validate:  validate,
		notices:   NewNoticeBoard(opts.Clock),
		reloader:  opts.Reloader,
		ttl:       opts.NoticeTTL,
		log:       log,
		intent:    domain.NewPaymentIntent(),
	}
}

// Edit replaces the form fields. It is only allowed while editing.
func (w *PaymentWorkflow) Edit(fields domain.PaymentFields) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.intent.Stage != domain.StageEditing {
		return fmt.Errorf("edit payment in stage %s: %w", w.intent.Stage, domain.ErrInvalidTransition)
	}
	fields.RecipientEmail = strings.TrimSpace(fields.RecipientEmail)
	fields.SwiftCode = strings.TrimSpace(fields.SwiftCode)
	fields.Amount = strings.TrimSpace(fields.Amount)
	if fields.Currency == "" {
		fields.Currency = string(domain.CurrencyZAR)
	}
	fields.Currency = string(domain.ParseCurrency(fields.Currency))
	w.intent.Fields = fields
	return nil
}

// Preview validates the form, converts the amount to rand and moves the
// intent to PreviewConfirm. On a validation failure the intent stays in
// Editing.
func (w *PaymentWorkflow) Preview() (domain.PaymentIntent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.intent.Stage.CanTransitionTo(domain.StagePreviewConfirm) {
		return w.intent, fmt.Errorf("preview payment in stage %s: %w", w.intent.Stage, domain.ErrInvalidTransition)
	}
	if err := w.validate.Validate(w.intent.Fields); err != nil {
		return w.intent, err
	}
	amount, err := decimal.NewFromString(w.intent.Fields.Amount)
	if err != nil {
		return w.intent, domain.NewValidationError("amount", "amount must be numeric")
	}
	if !amount.IsPositive() {
		return w.intent, domain.NewValidationError("amount", "amount must be greater than zero")
	}
	cur := w.intent.SourceCurrency()
	zar, ok := w.converter.ToZAR(cur, amount)
	if !ok {
		return w.intent, domain.NewValidationError("currency", fmt.Sprintf("unsupported currency %q", cur))
	}
	zar = zar.Round(2)

	w.intent.SourceAmount = amount
	w.intent.ConvertedAmountZAR = &zar
	w.intent.Stage = domain.StagePreviewConfirm
	w.notices.Clear()

	metrics.WorkflowTransitionsTotal.WithLabelValues("payment", string(domain.StagePreviewConfirm)).Inc()
	w.log.Debug().Str("currency", string(cur)).Str("amount_zar", zar.StringFixed(2)).Msg("payment previewed")
	return w.intent, nil
}

// Cancel returns from PreviewConfirm to Editing, dropping the converted
// amount and keeping every field.
func (w *PaymentWorkflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.intent.Stage != domain.StagePreviewConfirm {
		return fmt.Errorf("cancel payment in stage %s: %w", w.intent.Stage, domain.ErrInvalidTransition)
	}
	w.intent.ConvertedAmountZAR = nil
	w.intent.SourceAmount = decimal.Zero
	w.intent.Stage = domain.StageEditing
	metrics.WorkflowTransitionsTotal.WithLabelValues("payment", string(domain.StageEditing)).Inc()
	return nil
}

// Confirm moves the intent to Submitted before calling the backend with the
// rand amount. The intent stays Submitted when the call fails; only the
// notice changes. On success the form is cleared, the reloader runs, and a
// fresh intent replaces this one once the success notice expires.
func (w *PaymentWorkflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		metrics.ConcurrencyConflictsTotal.WithLabelValues("create_payment").Inc()
		return fmt.Errorf("confirm payment: %w", domain.ErrConcurrencyConflict)
	}
	if !w.intent.Stage.CanTransitionTo(domain.StageSubmitted) || w.intent.ConvertedAmountZAR == nil {
		stage := w.intent.Stage
		w.mu.Unlock()
		return fmt.Errorf("confirm payment in stage %s: %w", stage, domain.ErrInvalidTransition)
	}
	req := ports.PaymentRequest{
		RecipientEmail: w.intent.Fields.RecipientEmail,
		SwiftCode:      w.intent.Fields.SwiftCode,
		Amount:         *w.intent.ConvertedAmountZAR,
		Currency:       w.intent.SourceCurrency(),
	}
	w.intent.Stage = domain.StageSubmitted
	w.submitting = true
	w.notices.Clear()
	gen := w.gen
	w.mu.Unlock()

	metrics.WorkflowTransitionsTotal.WithLabelValues("payment", string(domain.StageSubmitted)).Inc()

	err := w.backend.CreatePayment(ctx, req)

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return err
	}
	w.submitting = false
	if err != nil {
		w.notices.Post(domain.NoticeError, domain.UserMessage(err, msgPaymentFailed))
		w.mu.Unlock()
		w.log.Error().Err(err).Str("currency", string(req.Currency)).Msg("payment creation failed")
		return err
	}
	w.intent.Fields = domain.PaymentFields{}
	w.notices.PostTransient(domain.NoticeSuccess, msgPaymentSent, w.ttl, func() { w.startOver(gen) })
	w.mu.Unlock()

	w.log.Info().Str("amount_zar", req.Amount.StringFixed(2)).Msg("payment submitted")

	if w.reloader != nil {
		if rerr := w.reloader.Reload(ctx); rerr != nil {
			w.log.Warn().Err(rerr).Msg("account reload after payment failed")
		}
	}
	return nil
}

func (w *PaymentWorkflow) startOver(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return
	}
	w.gen++
	w.intent = domain.NewPaymentIntent()
	metrics.WorkflowTransitionsTotal.WithLabelValues("payment", string(domain.StageEditing)).Inc()
}

// Reset discards the intent and any notice. An in-flight confirm that
// settles afterwards is ignored.
func (w *PaymentWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.intent = domain.NewPaymentIntent()
	w.submitting = false
	w.notices.Clear()
}

func (w *PaymentWorkflow) Intent() domain.PaymentIntent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.intent
}

func (w *PaymentWorkflow) State() PaymentState {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := PaymentState{Intent: w.intent, Submitting: w.submitting}
	if n, ok := w.notices.Current(); ok {
		st.Notice = &n
	}
	return st
}
