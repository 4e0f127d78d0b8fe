package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandElo        CardBrand = "elo"
	CardBrandAmex       CardBrand = "amex"
	CardBrandHipercard  CardBrand = "hipercard"
	CardBrandOther      CardBrand = "other"
)

// Valid reports whether b is a known card brand
func (b CardBrand) Valid() bool {
	switch b {
	case CardBrandVisa, CardBrandMastercard, CardBrandElo, CardBrandAmex, CardBrandHipercard, CardBrandOther:
		return true
	}
	return false
}

type Card struct {
	ID          int32           `json:"id"`
	UserID      int32           `json:"userId"`
	Name        string          `json:"name"`
	Brand       CardBrand       `json:"brand"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	CloseDay    int             `json:"closeDay"`
	DueDay      int             `json:"dueDay"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CardTransaction links a transaction to the card it was charged on
type CardTransaction struct {
	ID            int32 `json:"id"`
	CardID        int32 `json:"cardId"`
	TransactionID int32 `json:"transactionId"`
	ParcelNumber  int32 `json:"parcelNumber"`
}

// CardUsageTotal is the sum of linked transaction values for one card
type CardUsageTotal struct {
	CardID int32
	Total  decimal.Decimal
}

// UsageLevel buckets a utilization percentage for display
type UsageLevel string

const (
	UsageLevelNormal   UsageLevel = "normal"
	UsageLevelWarning  UsageLevel = "warning"
	UsageLevelCritical UsageLevel = "critical"
)

// CardUsage is the derived usage view of a card
type CardUsage struct {
	CardID             int32
	Usage              decimal.Decimal
	AvailableCredit    decimal.Decimal
	UtilizationPercent decimal.Decimal
	Level              UsageLevel
	NextCloseDate      time.Time
	NextDueDate        time.Time
}

// CardUpdate carries the editable fields of a card; nil means unchanged
type CardUpdate struct {
	Name        *string
	Brand       *CardBrand
	CreditLimit *decimal.Decimal
	CloseDay    *int
	DueDay      *int
}

type CardRepository interface {
	Create(card *Card) (*Card, error)
	GetByID(userID int32, id int32) (*Card, error)
	GetAllByUser(userID int32) ([]*Card, error)
	Update(userID int32, id int32, update CardUpdate) (*Card, error)
	Delete(userID int32, id int32) error
	GetUsageTotals(userID int32) ([]*CardUsageTotal, error)
	GetLinks(userID int32, cardID int32) ([]*CardTransaction, error)
}
