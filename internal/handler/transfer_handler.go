package handler

import (
	"net/http"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransferHandler handles transfers between accounts
type TransferHandler struct {
	transferService *service.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// CreateTransferRequest represents the create transfer request body
type CreateTransferRequest struct {
	FromAccountID int32   `json:"fromAccountId"`
	ToAccountID   int32   `json:"toAccountId"`
	Value         string  `json:"value"`
	Date          *string `json:"date"`
	Description   *string `json:"description,omitempty"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID            int32   `json:"id"`
	FromAccountID int32   `json:"fromAccountId"`
	ToAccountID   int32   `json:"toAccountId"`
	Value         string  `json:"value"`
	Date          string  `json:"date"`
	Description   *string `json:"description,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

// CreateTransfer handles POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransferRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	value, err := parseDecimal(req.Value)
	if err != nil {
		return NewValidationError(c, "Invalid value", []ValidationError{
			{Field: "value", Message: "Must be a valid decimal number"},
		})
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Date must be in YYYY-MM-DD format"},
		})
	}

	input := service.CreateTransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Value:         value,
		Description:   req.Description,
	}
	if date != nil {
		input.Date = *date
	}

	transfer, err := h.transferService.CreateTransfer(userID, input)
	if err != nil {
		return NewServiceError(c, err, "create transfer")
	}

	log.Info().
		Int32("user_id", userID).
		Int32("transfer_id", transfer.ID).
		Int32("from_account_id", transfer.FromAccountID).
		Int32("to_account_id", transfer.ToAccountID).
		Msg("Transfer created")

	return c.JSON(http.StatusCreated, toTransferResponse(transfer))
}

// GetTransfers handles GET /api/v1/transfers
func (h *TransferHandler) GetTransfers(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	transfers, err := h.transferService.GetTransfers(userID)
	if err != nil {
		return NewServiceError(c, err, "get transfers")
	}

	response := make([]TransferResponse, len(transfers))
	for i, transfer := range transfers {
		response[i] = toTransferResponse(transfer)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteTransfer handles DELETE /api/v1/transfers/:id
func (h *TransferHandler) DeleteTransfer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transfer ID", nil)
	}

	if err := h.transferService.DeleteTransfer(userID, id); err != nil {
		return NewServiceError(c, err, "delete transfer")
	}
	return c.NoContent(http.StatusNoContent)
}

func toTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Value:         formatMoney(t.Value),
		Date:          formatDate(t.Date),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}
