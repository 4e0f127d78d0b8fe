package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/service"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newAccountHandler(ledger *testutil.MockLedger) *AccountHandler {
	accountService := service.NewAccountService(ledger.Accounts)
	calculationService := service.NewCalculationService(ledger.Accounts, ledger.Transactions, ledger.Cards)
	return NewAccountHandler(accountService, calculationService)
}

func seedAccountWithMovements(ledger *testutil.MockLedger) {
	ledger.Accounts.AddAccount(&domain.Account{
		ID: 1, UserID: 1, Name: "Main", Bank: "Nubank", Type: domain.AccountTypeChecking,
		InitialBalance: testutil.Money("1000"), CreatedAt: time.Now(),
	})
	ledger.Transactions.AddTransaction(&domain.Transaction{
		ID: 1, UserID: 1, AccountID: 1, CategoryID: 1, Type: domain.TransactionTypeIncome,
		Value: testutil.Money("250.50"), Date: testutil.Date(2024, time.March, 1),
	})
	ledger.Transactions.AddTransaction(&domain.Transaction{
		ID: 2, UserID: 1, AccountID: 1, CategoryID: 2, Type: domain.TransactionTypeExpense,
		Value: testutil.Money("100.25"), Date: testutil.Date(2024, time.March, 2),
	})
}

func TestCreateAccount_Success(t *testing.T) {
	e := echo.New()
	handler := newAccountHandler(testutil.NewMockLedger())

	c, rec := newUserContext(e, http.MethodPost, "/api/v1/accounts",
		`{"name": "My Savings", "bank": "Itaú", "type": "savings", "initialBalance": "1000.5"}`)

	err := handler.CreateAccount(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "My Savings" {
		t.Errorf("Expected name 'My Savings', got %s", response.Name)
	}
	if response.Type != "savings" {
		t.Errorf("Expected type 'savings', got %s", response.Type)
	}
	if response.InitialBalance != "1000.50" {
		t.Errorf("Expected initial balance '1000.50', got %s", response.InitialBalance)
	}
	if response.CurrentBalance != "1000.50" {
		t.Errorf("Expected current balance '1000.50', got %s", response.CurrentBalance)
	}
}

func TestCreateAccount_DefaultsInitialBalance(t *testing.T) {
	e := echo.New()
	handler := newAccountHandler(testutil.NewMockLedger())

	c, rec := newUserContext(e, http.MethodPost, "/api/v1/accounts",
		`{"name": "Wallet", "bank": "Cash", "type": "checking"}`)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.InitialBalance != "0.00" {
		t.Errorf("Expected initial balance '0.00', got %s", response.InitialBalance)
	}
}

func TestCreateAccount_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"bank": "Nubank", "type": "checking"}`, "name"},
		{"missing bank", `{"name": "Main", "type": "checking"}`, "bank"},
		{"invalid type", `{"name": "Main", "bank": "Nubank", "type": "brokerage"}`, "type"},
		{"invalid balance", `{"name": "Main", "bank": "Nubank", "type": "checking", "initialBalance": "lots"}`, "initialBalance"},
		{"sub-cent balance", `{"name": "Main", "bank": "Nubank", "type": "checking", "initialBalance": "10.001"}`, "initialBalance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := newAccountHandler(testutil.NewMockLedger())
			c, rec := newUserContext(e, http.MethodPost, "/api/v1/accounts", tt.body)

			if err := handler.CreateAccount(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			problem := decodeProblem(t, rec)
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on field %s, got %+v", tt.field, problem.Errors)
			}
		})
	}
}

func TestCreateAccount_Unauthenticated(t *testing.T) {
	e := echo.New()
	handler := newAccountHandler(testutil.NewMockLedger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"name": "Main"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Authenticated subject without a local user
	setupAuthContext(c, "auth0|nouser", "nouser@example.com", "", "")

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetAccounts_IncludesCurrentBalance(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedAccountWithMovements(ledger)
	handler := newAccountHandler(ledger)

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/accounts", "")

	if err := handler.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(response))
	}
	if response[0].CurrentBalance != "1150.25" {
		t.Errorf("Expected current balance '1150.25', got %s", response[0].CurrentBalance)
	}
	if response[0].InitialBalance != "1000.00" {
		t.Errorf("Expected initial balance '1000.00', got %s", response[0].InitialBalance)
	}
}

func TestGetAccountBalance(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedAccountWithMovements(ledger)
	handler := newAccountHandler(ledger)

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/accounts/1/balance", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.GetAccountBalance(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.AccountID != 1 || response.CurrentBalance != "1150.25" {
		t.Errorf("Expected account 1 with balance 1150.25, got %+v", response)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	e := echo.New()
	handler := newAccountHandler(testutil.NewMockLedger())

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/accounts/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := handler.GetAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Detail != "Account not found" {
		t.Errorf("Expected detail 'Account not found', got %s", problem.Detail)
	}
}

func TestGetAccount_InvalidID(t *testing.T) {
	e := echo.New()
	handler := newAccountHandler(testutil.NewMockLedger())

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/accounts/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := handler.GetAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateAccount_PartialUpdate(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedAccountWithMovements(ledger)
	handler := newAccountHandler(ledger)

	c, rec := newUserContext(e, http.MethodPut, "/api/v1/accounts/1", `{"initialBalance": "2000"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.UpdateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Main" {
		t.Errorf("Expected name to be unchanged, got %s", response.Name)
	}
	if response.CurrentBalance != "2150.25" {
		t.Errorf("Expected current balance '2150.25', got %s", response.CurrentBalance)
	}
}

func TestDeleteAccount(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedAccountWithMovements(ledger)
	handler := newAccountHandler(ledger)

	c, rec := newUserContext(e, http.MethodDelete, "/api/v1/accounts/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if _, ok := ledger.Accounts.Accounts[1]; ok {
		t.Error("Expected account to be deleted")
	}
}
