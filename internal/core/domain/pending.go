package domain

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the backend approval state of a submitted payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentApproved PaymentStatus = "Approved"
	PaymentRejected PaymentStatus = "Rejected"
)

// Party is the sender or recipient of a payment as shown to an admin.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p Party) DisplayName() string {
	if p.Name == "" {
		return "Unknown"
	}
	return p.Name
}

func (p Party) DisplayEmail() string {
	if p.Email == "" {
		return "N/A"
	}
	return p.Email
}

// PendingPayment is a submitted payment awaiting an admin decision. Amount is in rand.
type PendingPayment struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    Party              `json:"sender"`
	Recipient Party              `json:"recipient"`
	Amount    decimal.Decimal    `json:"amount"`
	SwiftCode string             `json:"swiftCode"`
	Status    PaymentStatus      `json:"status"`
}

// AwaitingDecision reports whether the payment belongs in the approval queue.
// The pending endpoint may omit status, which is read as Pending.
func (p PendingPayment) AwaitingDecision() bool {
	return p.Status == "" || p.Status == PaymentPending
}
