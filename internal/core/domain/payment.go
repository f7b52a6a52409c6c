package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code of the amount a user types into the payment form.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyZAR Currency = "ZAR"
)

// ParseCurrency upper-cases s. It does not check s against the rate table.
func ParseCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// PaymentStage represents the lifecycle position of a payment intent.
type PaymentStage string

const (
	StageEditing        PaymentStage = "editing"
	StagePreviewConfirm PaymentStage = "preview_confirm"
	StageSubmitted      PaymentStage = "submitted"
)

// paymentTransitions defines the allowed payment workflow transitions.
// Submitted has no outgoing edge: the next payment starts a fresh intent.
var paymentTransitions = map[PaymentStage][]PaymentStage{
	StageEditing:        {StagePreviewConfirm},
	StagePreviewConfirm: {StageEditing, StageSubmitted},
}

// CanTransitionTo reports whether a transition from the current stage to next is valid.
func (s PaymentStage) CanTransitionTo(next PaymentStage) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentFields is the raw form input of a payment.
type PaymentFields struct {
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
	SwiftCode      string `json:"swiftCode"      validate:"required"`
	Amount         string `json:"amount"         validate:"required,numeric"`
	Currency       string `json:"currency"       validate:"required"`
}

// PaymentIntent is one in-progress payment held locally until it is submitted.
type PaymentIntent struct {
	Fields PaymentFields `json:"fields"`

	// SourceAmount is the parsed form amount, set together with
	// ConvertedAmountZAR when the intent enters PreviewConfirm.
	SourceAmount       decimal.Decimal  `json:"sourceAmount"`
	ConvertedAmountZAR *decimal.Decimal `json:"convertedAmountZAR,omitempty"`
	Stage              PaymentStage     `json:"stage"`
}

// NewPaymentIntent returns an empty intent in the Editing stage, defaulting to rand.
func NewPaymentIntent() PaymentIntent {
	return PaymentIntent{
		Fields: PaymentFields{Currency: string(CurrencyZAR)},
		Stage:  StageEditing,
	}
}

func (p PaymentIntent) SourceCurrency() Currency {
	return ParseCurrency(p.Fields.Currency)
}
