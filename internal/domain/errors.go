package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so callers at the
// HTTP boundary can classify failures with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrStorageFailure = errors.New("storage failure")
)

// Not found errors
var (
	ErrUserNotFound        = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account not found: %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category not found: %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction not found: %w", ErrNotFound)
	ErrCardNotFound        = fmt.Errorf("card not found: %w", ErrNotFound)
	ErrTransferNotFound    = fmt.Errorf("transfer not found: %w", ErrNotFound)
	ErrSimulationNotFound  = fmt.Errorf("simulation not found: %w", ErrNotFound)
)

// Validation errors
var (
	ErrNameRequired          = fmt.Errorf("name is required: %w", ErrInvalidInput)
	ErrNameTooLong           = fmt.Errorf("name exceeds maximum length: %w", ErrInvalidInput)
	ErrBankRequired          = fmt.Errorf("bank is required: %w", ErrInvalidInput)
	ErrInvalidAccountType    = fmt.Errorf("invalid account type: %w", ErrInvalidInput)
	ErrInvalidEntryType      = fmt.Errorf("invalid type: %w", ErrInvalidInput)
	ErrInvalidPaymentMethod  = fmt.Errorf("invalid payment method: %w", ErrInvalidInput)
	ErrInvalidCardBrand      = fmt.Errorf("invalid card brand: %w", ErrInvalidInput)
	ErrInvalidValue          = fmt.Errorf("value must be greater than zero: %w", ErrInvalidInput)
	ErrValuePrecision        = fmt.Errorf("value has more than two decimal places: %w", ErrInvalidInput)
	ErrBalancePrecision      = fmt.Errorf("initial balance has more than two decimal places: %w", ErrInvalidInput)
	ErrLimitPrecision        = fmt.Errorf("credit limit has more than two decimal places: %w", ErrInvalidInput)
	ErrNegativeLimit         = fmt.Errorf("credit limit must not be negative: %w", ErrInvalidInput)
	ErrInvalidDay            = fmt.Errorf("day must be between 1 and 31: %w", ErrInvalidInput)
	ErrDateRequired          = fmt.Errorf("date is required: %w", ErrInvalidInput)
	ErrDescriptionRequired   = fmt.Errorf("description is required: %w", ErrInvalidInput)
	ErrCategoryTypeMismatch  = fmt.Errorf("category type does not match transaction type: %w", ErrInvalidInput)
	ErrInvalidParcels        = fmt.Errorf("invalid parcel numbers: %w", ErrInvalidInput)
	ErrCardRequiresCredit    = fmt.Errorf("only credit card payments can be linked to a card: %w", ErrInvalidInput)
	ErrSameAccountTransfer   = fmt.Errorf("source and destination accounts must differ: %w", ErrInvalidInput)
	ErrEndBeforeStart        = fmt.Errorf("end date must not be before start date: %w", ErrInvalidInput)
	ErrInvalidForecastMonths = fmt.Errorf("forecast months out of range: %w", ErrInvalidInput)
	ErrInvalidPeriod         = fmt.Errorf("invalid period: %w", ErrInvalidInput)
	ErrInvalidDateRange      = fmt.Errorf("invalid date range: %w", ErrInvalidInput)
	ErrInvalidColor          = fmt.Errorf("color must be a #RRGGBB hex value: %w", ErrInvalidInput)
	ErrDescriptionTooLong    = fmt.Errorf("description exceeds maximum length: %w", ErrInvalidInput)
	ErrCategoryInUse         = fmt.Errorf("category still has transactions: %w", ErrInvalidInput)
)

// StorageError wraps an underlying persistence error as a storage failure.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 500
)
