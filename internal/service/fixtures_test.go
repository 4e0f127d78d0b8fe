package service

import (
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

const testUserID = int32(1)

// fixedSource always yields the same draw
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// sequenceSource yields draws in order, then repeats the last one
type sequenceSource struct {
	values []float64
	next   int
}

func (s *sequenceSource) Float64() float64 {
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v
}

// recordingPublisher captures published events
type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(userID int32, event websocket.Event) {
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedLedger adds a checking account, an income and an expense category and a card for testUserID
func seedLedger(t *testing.T, ledger *testutil.MockLedger) {
	t.Helper()
	ledger.Accounts.AddAccount(&domain.Account{
		ID: 1, UserID: testUserID, Name: "Checking", Bank: "Nubank",
		Type: domain.AccountTypeChecking, InitialBalance: money("1000"),
	})
	ledger.Categories.AddCategory(&domain.Category{
		ID: 1, UserID: testUserID, Name: "Salary", Type: domain.TransactionTypeIncome,
		Color: "#2E7D32", Icon: domain.DefaultCategoryIcon,
	})
	ledger.Categories.AddCategory(&domain.Category{
		ID: 2, UserID: testUserID, Name: "Groceries", Type: domain.TransactionTypeExpense,
		Color: "#C62828", Icon: domain.DefaultCategoryIcon,
	})
	ledger.Cards.AddCard(&domain.Card{
		ID: 1, UserID: testUserID, Name: "Gold", Brand: domain.CardBrandVisa,
		CreditLimit: money("1000"), CloseDay: 5, DueDay: 15,
	})
}

func addTx(ledger *testutil.MockLedger, id int32, txType domain.TransactionType, value string, date time.Time) *domain.Transaction {
	categoryID := int32(1)
	if txType == domain.TransactionTypeExpense {
		categoryID = 2
	}
	tx := &domain.Transaction{
		ID: id, UserID: testUserID, AccountID: 1, CategoryID: categoryID,
		Type: txType, Value: money(value), Date: date, Description: "tx",
		PaymentMethod: domain.PaymentMethodPix, TotalParcels: 1, ParcelNumber: 1,
	}
	ledger.Transactions.AddTransaction(tx)
	return tx
}
