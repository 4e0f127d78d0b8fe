package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the income/expense partition shared by transactions,
// categories and simulations
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix:
		return true
	}
	return false
}

type Transaction struct {
	ID            int32           `json:"id"`
	UserID        int32           `json:"userId"`
	AccountID     int32           `json:"accountId"`
	CategoryID    int32           `json:"categoryId"`
	Type          TransactionType `json:"type"`
	Value         decimal.Decimal `json:"value"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	IsFixed       bool            `json:"isFixed"`
	IsParceled    bool            `json:"isParceled"`
	TotalParcels  int32           `json:"totalParcels"`
	ParcelNumber  int32           `json:"parcelNumber"`
	CardID        *int32          `json:"cardId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// SignedValue returns the value with the sign it carries in a balance fold
func (t *Transaction) SignedValue() decimal.Decimal {
	switch t.Type {
	case TransactionTypeIncome:
		return t.Value
	case TransactionTypeExpense:
		return t.Value.Neg()
	}
	return decimal.Zero
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t falls within the range
func (r DateRange) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(r.Start)) && !d.After(DateOnly(r.End))
}

// DateOnly truncates t to a UTC calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WholeCents reports whether v has no more than two fractional digits
func WholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

type TransactionRepository interface {
	// Create stores the transaction and, when CardID is set, its card link in one unit
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID int32, id int32) (*Transaction, error)
	// ListByUser returns transactions most recent first; limit <= 0 returns all
	ListByUser(userID int32, limit int) ([]*Transaction, error)
	// ListByDateRange returns the user's transactions dated within the inclusive range
	ListByDateRange(userID int32, dateRange DateRange) ([]*Transaction, error)
	// Update rewrites the transaction and its card link in one unit
	Update(transaction *Transaction) (*Transaction, error)
	Delete(userID int32, id int32) error
	GetAccountTotals(userID int32) ([]*AccountTotals, error)
}
