package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two of the user's own accounts. It is a ledger
// event of its own, not a pair of transactions.
type Transfer struct {
	ID            int32           `json:"id"`
	UserID        int32           `json:"userId"`
	FromAccountID int32           `json:"fromAccountId"`
	ToAccountID   int32           `json:"toAccountId"`
	Value         decimal.Decimal `json:"value"`
	Date          time.Time       `json:"date"`
	Description   *string         `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type TransferRepository interface {
	Create(transfer *Transfer) (*Transfer, error)
	GetByID(userID int32, id int32) (*Transfer, error)
	// ListByUser returns transfers most recent first
	ListByUser(userID int32) ([]*Transfer, error)
	Delete(userID int32, id int32) error
}
