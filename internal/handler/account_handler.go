package handler

import (
	"net/http"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService     *service.AccountService
	calculationService *service.CalculationService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, calculationService *service.CalculationService) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		calculationService: calculationService,
	}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Bank           string `json:"bank"`
	Type           string `json:"type"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

// UpdateAccountRequest represents the update account request body. Omitted fields are unchanged.
type UpdateAccountRequest struct {
	Name           *string `json:"name"`
	Bank           *string `json:"bank"`
	Type           *string `json:"type"`
	InitialBalance *string `json:"initialBalance"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	Bank           string `json:"bank"`
	Type           string `json:"type"`
	InitialBalance string `json:"initialBalance"`
	CurrentBalance string `json:"currentBalance"`
	CreatedAt      string `json:"createdAt"`
}

// AccountBalanceResponse represents the derived balance of one account
type AccountBalanceResponse struct {
	AccountID      int32  `json:"accountId"`
	CurrentBalance string `json:"currentBalance"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	// Parse initial balance (default to 0)
	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = parseDecimal(req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initial balance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
	}

	account, err := h.accountService.CreateAccount(userID, service.CreateAccountInput{
		Name:           req.Name,
		Bank:           req.Bank,
		Type:           domain.AccountType(req.Type),
		InitialBalance: initialBalance,
	})
	if err != nil {
		return NewServiceError(c, err, "create account")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account created")

	// A new account has no movements yet
	return c.JSON(http.StatusCreated, toAccountResponse(account, account.InitialBalance))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountService.GetAccounts(userID)
	if err != nil {
		return NewServiceError(c, err, "get accounts")
	}

	balances, err := h.calculationService.CalculateAccountBalances(userID)
	if err != nil {
		return NewServiceError(c, err, "calculate balances")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		current := account.InitialBalance
		if b, ok := balances[account.ID]; ok {
			current = b.CalculatedBalance
		}
		response[i] = toAccountResponse(account, current)
	}

	return c.JSON(http.StatusOK, response)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccountByID(userID, id)
	if err != nil {
		return NewServiceError(c, err, "get account")
	}
	balance, err := h.calculationService.ComputeAccountBalance(userID, id)
	if err != nil {
		return NewServiceError(c, err, "calculate balance")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account, balance))
}

// GetAccountBalance handles GET /api/v1/accounts/:id/balance
func (h *AccountHandler) GetAccountBalance(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	balance, err := h.calculationService.ComputeAccountBalance(userID, id)
	if err != nil {
		return NewServiceError(c, err, "calculate balance")
	}

	return c.JSON(http.StatusOK, AccountBalanceResponse{
		AccountID:      id,
		CurrentBalance: formatMoney(balance),
	})
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	update := domain.AccountUpdate{Name: req.Name, Bank: req.Bank}
	if req.Type != nil {
		t := domain.AccountType(*req.Type)
		update.Type = &t
	}
	if req.InitialBalance != nil {
		balance, err := parseDecimal(*req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initial balance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
		update.InitialBalance = &balance
	}

	account, err := h.accountService.UpdateAccount(userID, id, update)
	if err != nil {
		return NewServiceError(c, err, "update account")
	}
	balance, err := h.calculationService.ComputeAccountBalance(userID, id)
	if err != nil {
		return NewServiceError(c, err, "calculate balance")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", account.ID).Msg("Account updated")
	return c.JSON(http.StatusOK, toAccountResponse(account, balance))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.DeleteAccount(userID, id); err != nil {
		return NewServiceError(c, err, "delete account")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", id).Msg("Account deleted")
	return c.NoContent(http.StatusNoContent)
}

func toAccountResponse(account *domain.Account, currentBalance decimal.Decimal) AccountResponse {
	return AccountResponse{
		ID:             account.ID,
		Name:           account.Name,
		Bank:           account.Bank,
		Type:           string(account.Type),
		InitialBalance: formatMoney(account.InitialBalance),
		CurrentBalance: formatMoney(currentBalance),
		CreatedAt:      account.CreatedAt.Format(time.RFC3339),
	}
}
