package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debtor is one tracked account. Balance is denormalized: it always equals
// sum(charge entries) - sum(payment entries) and is updated in the same
// transaction as every ledger write.
type Debtor struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Phone     string          `json:"phone" db:"phone"`
	Balance   decimal.Decimal `json:"balance" db:"balance"` // positive = owes, negative = credit
	Notes     string          `json:"notes" db:"notes"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

type EntryKind string

const (
	EntryCharge  EntryKind = "charge"
	EntryPayment EntryKind = "payment"
)

// LedgerEntry is one signed movement against a debtor. Amount is stored
// positive; the sign comes from Kind. Entries are never edited after insert.
type LedgerEntry struct {
	ID        int64           `json:"id" db:"id"`
	DebtorID  int64           `json:"debtorId" db:"debtor_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Kind      EntryKind       `json:"kind" db:"kind"`
	Memo      string          `json:"memo" db:"memo"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Delta returns the signed effect of the entry on the debtor balance.
func (e LedgerEntry) Delta() decimal.Decimal {
	if e.Kind == EntryPayment {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Stats are the dashboard aggregates.
type Stats struct {
	Debtors       int             `json:"totalDebtors"`
	WithDebt      int             `json:"debtorsWithDebt"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	MessagesToday int             `json:"messagesToday"`
}
