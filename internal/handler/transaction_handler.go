package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the create and update transaction request body
type TransactionRequest struct {
	AccountID     int32   `json:"accountId"`
	CategoryID    int32   `json:"categoryId"`
	Type          string  `json:"type"`
	Value         string  `json:"value"`
	Date          *string `json:"date"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"paymentMethod"`
	IsFixed       bool    `json:"isFixed"`
	IsParceled    bool    `json:"isParceled"`
	TotalParcels  int32   `json:"totalParcels,omitempty"`
	ParcelNumber  int32   `json:"parcelNumber,omitempty"`
	CardID        *int32  `json:"cardId,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID            int32  `json:"id"`
	AccountID     int32  `json:"accountId"`
	CategoryID    int32  `json:"categoryId"`
	Type          string `json:"type"`
	Value         string `json:"value"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
	IsFixed       bool   `json:"isFixed"`
	IsParceled    bool   `json:"isParceled"`
	TotalParcels  int32  `json:"totalParcels"`
	ParcelNumber  int32  `json:"parcelNumber"`
	CardID        *int32 `json:"cardId,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// CreateTransaction handles POST /api/v1/transactions
// @Summary Create a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param body body TransactionRequest true "Transaction"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		return NewServiceError(c, err, "create transaction")
	}

	log.Info().
		Int32("user_id", userID).
		Int32("transaction_id", transaction.ID).
		Str("type", string(transaction.Type)).
		Str("value", transaction.Value.String()).
		Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return NewValidationError(c, "Invalid limit", []ValidationError{
				{Field: "limit", Message: "Limit must be a non-negative integer"},
			})
		}
	}

	transactions, err := h.transactionService.GetTransactions(userID, limit)
	if err != nil {
		return NewServiceError(c, err, "get transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		response[i] = toTransactionResponse(transaction)
	}
	return c.JSON(http.StatusOK, response)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, id)
	if err != nil {
		return NewServiceError(c, err, "get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, id, input)
	if err != nil {
		return NewServiceError(c, err, "update transaction")
	}

	log.Info().Int32("user_id", userID).Int32("transaction_id", id).Msg("Transaction updated")
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(userID, id); err != nil {
		return NewServiceError(c, err, "delete transaction")
	}

	log.Info().Int32("user_id", userID).Int32("transaction_id", id).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

func (r TransactionRequest) toInput() (service.TransactionInput, *ValidationError) {
	value, err := parseDecimal(r.Value)
	if err != nil {
		return service.TransactionInput{}, &ValidationError{Field: "value", Message: "Must be a valid decimal number"}
	}
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return service.TransactionInput{}, &ValidationError{Field: "date", Message: "Date must be in YYYY-MM-DD format"}
	}

	input := service.TransactionInput{
		AccountID:     r.AccountID,
		CategoryID:    r.CategoryID,
		Type:          domain.TransactionType(r.Type),
		Value:         value,
		Description:   r.Description,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		IsFixed:       r.IsFixed,
		IsParceled:    r.IsParceled,
		TotalParcels:  r.TotalParcels,
		ParcelNumber:  r.ParcelNumber,
		CardID:        r.CardID,
	}
	if date != nil {
		input.Date = *date
	}
	return input, nil
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		CategoryID:    t.CategoryID,
		Type:          string(t.Type),
		Value:         formatMoney(t.Value),
		Date:          formatDate(t.Date),
		Description:   t.Description,
		PaymentMethod: string(t.PaymentMethod),
		IsFixed:       t.IsFixed,
		IsParceled:    t.IsParceled,
		TotalParcels:  t.TotalParcels,
		ParcelNumber:  t.ParcelNumber,
		CardID:        t.CardID,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}
