package handler

import (
	"errors"
	"net/http"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://finora.app/errors/validation"
	ErrorTypeNotFound     = "https://finora.app/errors/not-found"
	ErrorTypeUnauthorized = "https://finora.app/errors/unauthorized"
	ErrorTypeInternal     = "https://finora.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

type fieldError struct {
	err   error
	field ValidationError
}

// fieldErrors attributes validation errors to the request field they concern
var fieldErrors = []fieldError{
	{domain.ErrNameRequired, ValidationError{Field: "name", Message: "Name is required"}},
	{domain.ErrNameTooLong, ValidationError{Field: "name", Message: "Name must be 255 characters or less"}},
	{domain.ErrBankRequired, ValidationError{Field: "bank", Message: "Bank is required"}},
	{domain.ErrInvalidAccountType, ValidationError{Field: "type", Message: "Type must be one of: checking, savings"}},
	{domain.ErrInvalidEntryType, ValidationError{Field: "type", Message: "Type must be one of: income, expense"}},
	{domain.ErrInvalidPaymentMethod, ValidationError{Field: "paymentMethod", Message: "Payment method must be one of: cash, credit_card, debit_card, pix"}},
	{domain.ErrInvalidCardBrand, ValidationError{Field: "brand", Message: "Brand must be one of: visa, mastercard, elo, amex, hipercard, other"}},
	{domain.ErrInvalidValue, ValidationError{Field: "value", Message: "Value must be greater than zero"}},
	{domain.ErrValuePrecision, ValidationError{Field: "value", Message: "Value must have at most two decimal places"}},
	{domain.ErrBalancePrecision, ValidationError{Field: "initialBalance", Message: "Initial balance must have at most two decimal places"}},
	{domain.ErrLimitPrecision, ValidationError{Field: "creditLimit", Message: "Credit limit must have at most two decimal places"}},
	{domain.ErrNegativeLimit, ValidationError{Field: "creditLimit", Message: "Credit limit must not be negative"}},
	{domain.ErrInvalidDay, ValidationError{Field: "closeDay", Message: "Close and due days must be between 1 and 31"}},
	{domain.ErrDateRequired, ValidationError{Field: "date", Message: "Date is required"}},
	{domain.ErrDescriptionRequired, ValidationError{Field: "description", Message: "Description is required"}},
	{domain.ErrDescriptionTooLong, ValidationError{Field: "description", Message: "Description must be 500 characters or less"}},
	{domain.ErrCategoryTypeMismatch, ValidationError{Field: "categoryId", Message: "Category type must match the transaction type"}},
	{domain.ErrInvalidParcels, ValidationError{Field: "parcelNumber", Message: "Parcel number must be between 1 and the total parcels"}},
	{domain.ErrCardRequiresCredit, ValidationError{Field: "cardId", Message: "Only credit card payments can be linked to a card"}},
	{domain.ErrSameAccountTransfer, ValidationError{Field: "toAccountId", Message: "Destination must differ from the source account"}},
	{domain.ErrEndBeforeStart, ValidationError{Field: "endDate", Message: "End date must not be before the start date"}},
	{domain.ErrInvalidForecastMonths, ValidationError{Field: "months", Message: "Months must be between 1 and 60"}},
	{domain.ErrInvalidPeriod, ValidationError{Field: "period", Message: "Unknown period"}},
	{domain.ErrInvalidDateRange, ValidationError{Field: "endDate", Message: "End date must not be before the start date"}},
	{domain.ErrInvalidColor, ValidationError{Field: "color", Message: "Color must be a #RRGGBB hex value"}},
	{domain.ErrCategoryInUse, ValidationError{Field: "id", Message: "Category still has transactions"}},
}

var notFoundDetails = []struct {
	err    error
	detail string
}{
	{domain.ErrUserNotFound, "User not found"},
	{domain.ErrAccountNotFound, "Account not found"},
	{domain.ErrCategoryNotFound, "Category not found"},
	{domain.ErrTransactionNotFound, "Transaction not found"},
	{domain.ErrCardNotFound, "Card not found"},
	{domain.ErrTransferNotFound, "Transfer not found"},
	{domain.ErrSimulationNotFound, "Simulation not found"},
}

// NewServiceError maps a service error to a problem response by its kind.
// Storage failures and unclassified errors are logged and reported as 500.
func NewServiceError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		for _, nf := range notFoundDetails {
			if errors.Is(err, nf.err) {
				return NewNotFoundError(c, nf.detail)
			}
		}
		return NewNotFoundError(c, "Resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		for _, fe := range fieldErrors {
			if errors.Is(err, fe.err) {
				return NewValidationError(c, "Validation failed", []ValidationError{fe.field})
			}
		}
		return NewValidationError(c, "Validation failed", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Authentication required")
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
