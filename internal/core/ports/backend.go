package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/domain"
)

// LoginResult is the backend answer to a successful login.
type LoginResult struct {
	Token string
	Role  string
}

// PaymentRequest is the body of a payment-creation call. Amount is the
// converted rand amount, Currency the tag of the amount the user typed.
type PaymentRequest struct {
	RecipientEmail string
	SwiftCode      string
	Amount         decimal.Decimal
	Currency       domain.Currency
}

// AdminRequest carries the fields of a new administrator.
type AdminRequest struct {
	Name     string `json:"name"     validate:"required"`
	Surname  string `json:"surname"  validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IDNumber string `json:"idNumber" validate:"required"`
}

// AuthBackend covers the public account endpoints.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, draft domain.RegistrationDraft) error
}

// PaymentBackend submits payments on behalf of the signed-in user.
type PaymentBackend interface {
	CreatePayment(ctx context.Context, req PaymentRequest) error
}

// AdminBackend covers the approval queue and admin enrolment endpoints.
type AdminBackend interface {
	PendingPayments(ctx context.Context) ([]domain.PendingPayment, error)
	ApprovePayment(ctx context.Context, id primitive.ObjectID) error
	RejectPayment(ctx context.Context, id primitive.ObjectID) error
	AddAdmin(ctx context.Context, req AdminRequest) error
}

// AccountBackend reads the signed-in user's dashboard data.
type AccountBackend interface {
	BalanceAndTransactions(ctx context.Context) (*domain.AccountSummary, error)
	Profile(ctx context.Context) (*domain.Profile, error)
}

// Backend is the full REST surface consumed by the portal.
type Backend interface {
	AuthBackend
	PaymentBackend
	AdminBackend
	AccountBackend
}
