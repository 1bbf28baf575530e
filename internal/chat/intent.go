package chat

import "github.com/shopspring/decimal"

// Intent is the classified meaning of one line of chat input. The set is
// closed: every variant is defined in this file and the parser returns
// exactly one of them per line.
type Intent interface {
	isIntent()
}

type HelpIntent struct{}

type ListIntent struct{}

type TotalsIntent struct{}

// NewDebtorIntent registers a debtor, optionally seeded with a starting debt.
type NewDebtorIntent struct {
	Name            string
	Phone           string
	StartingBalance decimal.Decimal
}

type DeleteIntent struct {
	Query string
}

type InfoIntent struct {
	Query string
}

// NotifyIntent sends a reminder to one debtor, or to everyone with debt when
// All is set ("notificar todos").
type NotifyIntent struct {
	Query string
	All   bool
}

// PaymentIntent records "name - amount": a payment that reduces the balance.
type PaymentIntent struct {
	Query  string
	Amount decimal.Decimal
}

// ChargeIntent records "name + amount": a charge that increases the balance.
type ChargeIntent struct {
	Query  string
	Amount decimal.Decimal
}

// UnknownIntent carries the original input so the response can echo it.
type UnknownIntent struct {
	Input string
}

func (HelpIntent) isIntent()      {}
func (ListIntent) isIntent()      {}
func (TotalsIntent) isIntent()    {}
func (NewDebtorIntent) isIntent() {}
func (DeleteIntent) isIntent()    {}
func (InfoIntent) isIntent()      {}
func (NotifyIntent) isIntent()    {}
func (PaymentIntent) isIntent()   {}
func (ChargeIntent) isIntent()    {}
func (UnknownIntent) isIntent()   {}
