package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncoming TransactionType = "incoming"
	TransactionOutgoing TransactionType = "outgoing"
)

// Transaction is one statement line of the signed-in user.
type Transaction struct {
	ID              string          `json:"_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	Status          PaymentStatus   `json:"status"`
	DisplayText     string          `json:"displayText"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Direction is the statement label: Credit for incoming money, Debit otherwise.
func (t Transaction) Direction() string {
	if t.TransactionType == TransactionIncoming {
		return "Credit"
	}
	return "Debit"
}

// AccountSummary is the balance+transactions payload.
type AccountSummary struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// Profile is the subset of the user profile the portal displays.
type Profile struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name,omitempty"`
	Surname       string `json:"surname,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Insights splits the statement into money in and money out.
type Insights struct {
	MoneyIn  decimal.Decimal `json:"moneyIn"`
	MoneyOut decimal.Decimal `json:"moneyOut"`
	HasData  bool            `json:"hasData"`
}

func SummarizeTransactions(txs []Transaction) Insights {
	in, out := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.TransactionType {
		case TransactionIncoming:
			in = in.Add(tx.Amount)
		case TransactionOutgoing:
			out = out.Add(tx.Amount)
		}
	}
	return Insights{MoneyIn: in, MoneyOut: out, HasData: len(txs) > 0}
}
