package service

import (
	"errors"
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculationService(ledger *testutil.MockLedger) *CalculationService {
	return NewCalculationService(ledger.Accounts, ledger.Transactions, ledger.Cards)
}

func TestComputeAccountBalance_NoTransactions(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	balance, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(money("1000")), "got %s", balance)
}

func TestComputeAccountBalance_Additivity(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	addTx(ledger, 1, domain.TransactionTypeIncome, "500", testutil.Date(2024, time.January, 10))
	addTx(ledger, 2, domain.TransactionTypeExpense, "200.50", testutil.Date(2024, time.January, 11))
	svc := newCalculationService(ledger)

	first, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "1299.50", first.StringFixed(2))

	second, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "repeated computation must be identical")
}

func TestComputeAccountBalance_TransfersMoveMoney(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Accounts.AddAccount(&domain.Account{
		ID: 2, UserID: testUserID, Name: "Savings", Bank: "Itau",
		Type: domain.AccountTypeSavings, InitialBalance: decimal.Zero,
	})
	ledger.Transfers.AddTransfer(&domain.Transfer{
		ID: 1, UserID: testUserID, FromAccountID: 1, ToAccountID: 2,
		Value: money("250"), Date: testutil.Date(2024, time.February, 1),
	})
	svc := newCalculationService(ledger)

	from, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	to, err := svc.ComputeAccountBalance(testUserID, 2)
	require.NoError(t, err)
	total, err := svc.TotalBalance(testUserID)
	require.NoError(t, err)

	assert.Equal(t, "750.00", from.StringFixed(2))
	assert.Equal(t, "250.00", to.StringFixed(2))
	assert.Equal(t, "1000.00", total.StringFixed(2), "transfers never change the total")
}

func TestComputeAccountBalance_NotFound(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	_, err := svc.ComputeAccountBalance(testUserID, 99)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// another user's account is indistinguishable from a missing one
	_, err = svc.ComputeAccountBalance(2, 1)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestComputeAccountBalance_StorageFailure(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Transactions.GetAccountTotalsFn = func(userID int32) ([]*domain.AccountTotals, error) {
		return nil, domain.StorageError("account totals", errors.New("connection reset"))
	}
	svc := newCalculationService(ledger)

	_, err := svc.ComputeAccountBalance(testUserID, 1)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestCalculateAccountBalances_AllAccounts(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Accounts.AddAccount(&domain.Account{
		ID: 2, UserID: testUserID, Name: "Savings", Bank: "Itau",
		Type: domain.AccountTypeSavings, InitialBalance: money("50"),
	})
	addTx(ledger, 1, domain.TransactionTypeExpense, "100", testutil.Date(2024, time.March, 3))
	svc := newCalculationService(ledger)

	results, err := svc.CalculateAccountBalances(testUserID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "900.00", results[1].CalculatedBalance.StringFixed(2))
	assert.Equal(t, "50.00", results[2].CalculatedBalance.StringFixed(2))
	assert.Equal(t, "50.00", results[2].InitialBalance.StringFixed(2))
}

func TestComputeAccountBalance_CacheInvalidatedByTransaction(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	balances := cache.NewStore[decimal.Decimal]()
	svc.SetCaches(balances, nil)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateAccountBalance, balances)
	notifier := NewChangeNotifier(invalidator)

	_, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	_, err = svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Transactions.GetAccountTotalsCalls, "second read is served from the cache")

	tx := addTx(ledger, 1, domain.TransactionTypeIncome, "10", testutil.Date(2024, time.April, 1))
	notifier.Changed(transactionChange(testUserID, tx))

	balance, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "1010.00", balance.StringFixed(2))
	assert.Equal(t, 2, ledger.Transactions.GetAccountTotalsCalls)
}

func TestComputeCardUsage_NoLinkedTransactions(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	addTx(ledger, 1, domain.TransactionTypeExpense, "80", testutil.Date(2024, time.May, 2))
	svc := newCalculationService(ledger)

	usage, err := svc.ComputeCardUsage(testUserID, 1)
	require.NoError(t, err)
	assert.True(t, usage.IsZero())

	cards, err := svc.CalculateCardUsages(testUserID)
	require.NoError(t, err)
	assert.True(t, cards[1].UtilizationPercent.IsZero())
	assert.Equal(t, domain.UsageLevelNormal, cards[1].Level)
}

func TestComputeCardUsage_SumsLinkedTransactionsOfEitherType(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	cardID := int32(1)
	expense := addTx(ledger, 1, domain.TransactionTypeExpense, "700", testutil.Date(2024, time.May, 2))
	expense.CardID = &cardID
	refund := addTx(ledger, 2, domain.TransactionTypeIncome, "500", testutil.Date(2024, time.May, 3))
	refund.CardID = &cardID
	svc := newCalculationService(ledger)

	usage, err := svc.ComputeCardUsage(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", usage.StringFixed(2), "usage is not clamped to the limit")

	view, err := svc.GetCardUsage(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "100", view.UtilizationPercent.String())
	assert.Equal(t, domain.UsageLevelCritical, view.Level)
	assert.Equal(t, "-200.00", view.AvailableCredit.StringFixed(2))
}

func TestComputeCardUsage_NotFound(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	_, err := svc.ComputeCardUsage(testUserID, 42)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestUtilizationPercent(t *testing.T) {
	tests := []struct {
		name     string
		usage    string
		limit    string
		expected string
	}{
		{"unused", "0", "1000", "0"},
		{"partial", "250", "1000", "25"},
		{"fractional", "1", "3", "33.33"},
		{"over limit clamps", "1500", "1000", "100"},
		{"zero limit unused", "0", "0", "0"},
		{"zero limit used", "10", "0", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UtilizationPercent(money(tt.usage), money(tt.limit))
			assert.True(t, got.Equal(money(tt.expected)), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestUsageLevelFor(t *testing.T) {
	tests := []struct {
		percent  string
		expected domain.UsageLevel
	}{
		{"0", domain.UsageLevelNormal},
		{"59.99", domain.UsageLevelNormal},
		{"60", domain.UsageLevelWarning},
		{"79.99", domain.UsageLevelWarning},
		{"80", domain.UsageLevelCritical},
		{"100", domain.UsageLevelCritical},
	}

	for _, tt := range tests {
		if got := UsageLevelFor(money(tt.percent)); got != tt.expected {
			t.Errorf("UsageLevelFor(%s) = %s, want %s", tt.percent, got, tt.expected)
		}
	}
}

func TestDescribeCardUsage_StatementDates(t *testing.T) {
	card := &domain.Card{ID: 1, CreditLimit: money("1000"), CloseDay: 31, DueDay: 10}
	today := time.Date(2024, time.February, 20, 15, 0, 0, 0, time.UTC)

	view := DescribeCardUsage(card, money("100"), today)

	assert.Equal(t, testutil.Date(2024, time.February, 29), view.NextCloseDate, "close day clamps to month length")
	assert.Equal(t, testutil.Date(2024, time.March, 10), view.NextDueDate)
	assert.Equal(t, "900.00", view.AvailableCredit.StringFixed(2))
}

// writeDuringTotals makes the next GetAccountTotals return the totals as they
// were before write runs, with write committing inside the read
func writeDuringTotals(ledger *testutil.MockLedger, write func()) {
	ledger.Transactions.GetAccountTotalsFn = func(userID int32) ([]*domain.AccountTotals, error) {
		ledger.Transactions.GetAccountTotalsFn = nil
		before, err := ledger.Transactions.GetAccountTotals(userID)
		write()
		return before, err
	}
}

func TestComputeAccountBalance_WriteDuringReadIsNotCached(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	balances := cache.NewStore[decimal.Decimal]()
	svc.SetCaches(balances, nil)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateAccountBalance, balances)
	notifier := NewChangeNotifier(invalidator)

	writeDuringTotals(ledger, func() {
		tx := addTx(ledger, 1, domain.TransactionTypeIncome, "500", testutil.Date(2024, time.April, 1))
		notifier.Changed(transactionChange(testUserID, tx))
	})

	balance, err := svc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", balance.StringFixed(2), "the overlapping read sees the pre-write ledger")
	assert.Equal(t, 0, balances.Len())

	for i := 0; i < 2; i++ {
		balance, err = svc.ComputeAccountBalance(testUserID, 1)
		require.NoError(t, err)
		assert.Equal(t, "1500.00", balance.StringFixed(2))
	}
}

func TestCalculateAccountBalances_WriteDuringReadIsNotCached(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	balances := cache.NewStore[decimal.Decimal]()
	svc.SetCaches(balances, nil)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateAccountBalance, balances)
	notifier := NewChangeNotifier(invalidator)

	writeDuringTotals(ledger, func() {
		tx := addTx(ledger, 1, domain.TransactionTypeExpense, "200", testutil.Date(2024, time.April, 1))
		notifier.Changed(transactionChange(testUserID, tx))
	})

	_, err := svc.CalculateAccountBalances(testUserID)
	require.NoError(t, err)

	total, err := svc.TotalBalance(testUserID)
	require.NoError(t, err)
	assert.Equal(t, "800.00", total.StringFixed(2))
}

func TestComputeCardUsage_WriteDuringReadIsNotCached(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := newCalculationService(ledger)

	usages := cache.NewStore[decimal.Decimal]()
	svc.SetCaches(nil, usages)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateCardUsage, usages)
	notifier := NewChangeNotifier(invalidator)

	cardID := int32(1)
	ledger.Cards.GetUsageTotalsFn = func(userID int32) ([]*domain.CardUsageTotal, error) {
		ledger.Cards.GetUsageTotalsFn = nil
		before, err := ledger.Cards.GetUsageTotals(userID)
		tx := addTx(ledger, 1, domain.TransactionTypeExpense, "300", testutil.Date(2024, time.April, 1))
		tx.PaymentMethod = domain.PaymentMethodCreditCard
		tx.CardID = &cardID
		notifier.Changed(transactionChange(testUserID, tx))
		return before, err
	}

	usage, err := svc.ComputeCardUsage(testUserID, 1)
	require.NoError(t, err)
	assert.True(t, usage.IsZero())

	usage, err = svc.ComputeCardUsage(testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, "300.00", usage.StringFixed(2))
}
