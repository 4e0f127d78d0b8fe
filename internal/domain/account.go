package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// Valid reports whether t is a known account type
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings:
		return true
	}
	return false
}

type Account struct {
	ID             int32           `json:"id"`
	UserID         int32           `json:"userId"`
	Name           string          `json:"name"`
	Bank           string          `json:"bank"`
	Type           AccountType     `json:"type"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// AccountTotals holds the signed movement sums for a single account.
// Transfer sums are kept apart from income/expense so that transfers never
// leak into period summaries.
type AccountTotals struct {
	AccountID    int32
	SumIncome    decimal.Decimal
	SumExpenses  decimal.Decimal
	TransfersIn  decimal.Decimal
	TransfersOut decimal.Decimal
}

// Net returns the signed effect of all movements on the account balance
func (t *AccountTotals) Net() decimal.Decimal {
	return t.SumIncome.Sub(t.SumExpenses).Add(t.TransfersIn).Sub(t.TransfersOut)
}

// AccountUpdate carries the editable fields of an account; nil means unchanged
type AccountUpdate struct {
	Name           *string
	Bank           *string
	Type           *AccountType
	InitialBalance *decimal.Decimal
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(userID int32, id int32) (*Account, error)
	GetAllByUser(userID int32) ([]*Account, error)
	Update(userID int32, id int32, update AccountUpdate) (*Account, error)
	Delete(userID int32, id int32) error
}
