package service

import (
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMonthlySummary_MonthWindowing(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	addTx(ledger, 1, domain.TransactionTypeExpense, "100", testutil.Date(2024, time.January, 31))
	addTx(ledger, 2, domain.TransactionTypeExpense, "40", testutil.Date(2024, time.February, 1))
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)

	jan, err := svc.ComputeMonthlySummary(testUserID, 2024, 1)
	require.NoError(t, err)
	feb, err := svc.ComputeMonthlySummary(testUserID, 2024, 2)
	require.NoError(t, err)

	assert.Equal(t, "100.00", jan.TotalExpenses.StringFixed(2))
	assert.Equal(t, "40.00", feb.TotalExpenses.StringFixed(2))
	assert.True(t, jan.TotalIncome.IsZero())
}

func TestComputeMonthlySummary_ByCategory(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Categories.AddCategory(&domain.Category{ID: 3, UserID: testUserID, Name: "Rent", Type: domain.TransactionTypeExpense, Color: "#000000"})
	ledger.Categories.AddCategory(&domain.Category{ID: 4, UserID: testUserID, Name: "Travel", Type: domain.TransactionTypeExpense, Color: "#111111"})

	addTx(ledger, 1, domain.TransactionTypeIncome, "5000", testutil.Date(2024, time.March, 1))
	addTx(ledger, 2, domain.TransactionTypeExpense, "300", testutil.Date(2024, time.March, 2))
	rent := addTx(ledger, 3, domain.TransactionTypeExpense, "1200", testutil.Date(2024, time.March, 5))
	rent.CategoryID = 3
	orphan := addTx(ledger, 4, domain.TransactionTypeExpense, "99", testutil.Date(2024, time.March, 6))
	orphan.CategoryID = 77
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)

	summary, err := svc.ComputeMonthlySummary(testUserID, 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, "5000.00", summary.TotalIncome.StringFixed(2))
	assert.Equal(t, "1599.00", summary.TotalExpenses.StringFixed(2), "totals include every transaction")

	require.Len(t, summary.ByCategory, 2, "income, unknown and unused categories are omitted")
	assert.Equal(t, "Rent", summary.ByCategory[0].CategoryName)
	assert.Equal(t, "1200.00", summary.ByCategory[0].Total.StringFixed(2))
	assert.Equal(t, "#000000", summary.ByCategory[0].Color)
	assert.Equal(t, "Groceries", summary.ByCategory[1].CategoryName)
	for _, ct := range summary.ByCategory {
		assert.NotEqual(t, int32(4), ct.CategoryID)
	}
}

func TestComputeMonthlySummary_Empty(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)

	summary, err := svc.ComputeMonthlySummary(testUserID, 2030, 12)
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.TotalExpenses.IsZero())
	assert.NotNil(t, summary.ByCategory)
	assert.Empty(t, summary.ByCategory)
}

func TestComputeMonthlySummary_InvalidMonth(t *testing.T) {
	svc := NewSummaryService(testutil.NewMockTransactionRepository(), testutil.NewMockCategoryRepository())

	_, err := svc.ComputeMonthlySummary(testUserID, 2024, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestComputeMonthlySummary_CacheScopedToMonth(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)
	store := cache.NewStore[*domain.MonthlySummary]()
	svc.SetCache(store)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateMonthlySummary, store)

	_, err := svc.ComputeMonthlySummary(testUserID, 2024, 1)
	require.NoError(t, err)
	_, err = svc.ComputeMonthlySummary(testUserID, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Transactions.ListByDateRangeCalls)

	tx := addTx(ledger, 1, domain.TransactionTypeIncome, "10", testutil.Date(2024, time.February, 14))
	invalidator.Apply(transactionChange(testUserID, tx))

	_, err = svc.ComputeMonthlySummary(testUserID, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Transactions.ListByDateRangeCalls, "January is untouched")

	feb, err := svc.ComputeMonthlySummary(testUserID, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.Transactions.ListByDateRangeCalls)
	assert.Equal(t, "10.00", feb.TotalIncome.StringFixed(2))
}

func TestComputeRangeSummary_Filters(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Accounts.AddAccount(&domain.Account{ID: 2, UserID: testUserID, Name: "Savings", Bank: "Itau", Type: domain.AccountTypeSavings})
	addTx(ledger, 1, domain.TransactionTypeIncome, "1000", testutil.Date(2024, time.April, 1))
	addTx(ledger, 2, domain.TransactionTypeExpense, "200", testutil.Date(2024, time.April, 2))
	other := addTx(ledger, 3, domain.TransactionTypeExpense, "50", testutil.Date(2024, time.April, 3))
	other.AccountID = 2
	addTx(ledger, 4, domain.TransactionTypeExpense, "999", testutil.Date(2024, time.June, 1))
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)

	r := domain.DateRange{Start: testutil.Date(2024, time.April, 1), End: testutil.Date(2024, time.April, 30)}

	all, err := svc.ComputeRangeSummary(testUserID, domain.ReportFilter{Range: r})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TransactionCount)
	assert.Equal(t, "750.00", all.Balance.StringFixed(2))

	accountID := int32(2)
	byAccount, err := svc.ComputeRangeSummary(testUserID, domain.ReportFilter{Range: r, AccountID: &accountID})
	require.NoError(t, err)
	assert.Equal(t, 1, byAccount.TransactionCount)
	assert.Equal(t, "-50.00", byAccount.Balance.StringFixed(2))

	categoryID := int32(1)
	byCategory, err := svc.ComputeRangeSummary(testUserID, domain.ReportFilter{Range: r, CategoryID: &categoryID})
	require.NoError(t, err)
	assert.Equal(t, 1, byCategory.TransactionCount)
	assert.Equal(t, "1000.00", byCategory.TotalIncome.StringFixed(2))
	assert.Empty(t, byCategory.ByCategory)
}

func TestComputeRangeSummary_InvalidRange(t *testing.T) {
	svc := NewSummaryService(testutil.NewMockTransactionRepository(), testutil.NewMockCategoryRepository())

	_, err := svc.ComputeRangeSummary(testUserID, domain.ReportFilter{Range: domain.DateRange{
		Start: testutil.Date(2024, time.May, 2),
		End:   testutil.Date(2024, time.May, 1),
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = svc.ComputeRangeSummary(testUserID, domain.ReportFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestComputeMonthlyTrend(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	addTx(ledger, 1, domain.TransactionTypeIncome, "1000", testutil.Date(2024, time.March, 10))
	addTx(ledger, 2, domain.TransactionTypeExpense, "400", testutil.Date(2024, time.January, 5))
	addTx(ledger, 3, domain.TransactionTypeExpense, "100", testutil.Date(2024, time.March, 20))
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)

	trend, err := svc.ComputeMonthlyTrend(testUserID, domain.ReportFilter{Range: domain.DateRange{
		Start: testutil.Date(2024, time.January, 1),
		End:   testutil.Date(2024, time.December, 31),
	}})
	require.NoError(t, err)
	require.Len(t, trend, 2, "February has no activity")

	assert.Equal(t, 1, trend[0].Month)
	assert.Equal(t, "-400.00", trend[0].Net.StringFixed(2))
	assert.Equal(t, 3, trend[1].Month)
	assert.Equal(t, "1000.00", trend[1].Income.StringFixed(2))
	assert.Equal(t, "900.00", trend[1].Net.StringFixed(2))
}

func TestReportRange(t *testing.T) {
	today := time.Date(2024, time.May, 31, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		period domain.ReportPeriod
		start  time.Time
		end    time.Time
	}{
		{domain.ReportPeriodThisMonth, testutil.Date(2024, time.May, 1), testutil.Date(2024, time.May, 31)},
		{domain.ReportPeriodLastMonth, testutil.Date(2024, time.April, 1), testutil.Date(2024, time.April, 30)},
		{domain.ReportPeriodThisYear, testutil.Date(2024, time.January, 1), testutil.Date(2024, time.December, 31)},
		{domain.ReportPeriodLast3Months, testutil.Date(2024, time.March, 2), testutil.Date(2024, time.May, 31)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			r, err := ReportRange(tt.period, today)
			require.NoError(t, err)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}

	_, err := ReportRange(domain.ReportPeriod("lastDecade"), today)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestReportRange_LastMonthInJanuary(t *testing.T) {
	r, err := ReportRange(domain.ReportPeriodLastMonth, testutil.Date(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(2023, time.December, 1), r.Start)
	assert.Equal(t, testutil.Date(2023, time.December, 31), r.End)
}

func TestComputeMonthlySummary_WriteDuringReadIsNotCached(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	svc := NewSummaryService(ledger.Transactions, ledger.Categories)
	store := cache.NewStore[*domain.MonthlySummary]()
	svc.SetCache(store)
	invalidator := cache.NewInvalidator()
	invalidator.Register(cache.AggregateMonthlySummary, store)

	ledger.Transactions.ListByDateRangeFn = func(userID int32, dateRange domain.DateRange) ([]*domain.Transaction, error) {
		ledger.Transactions.ListByDateRangeFn = nil
		before, err := ledger.Transactions.ListByDateRange(userID, dateRange)
		tx := addTx(ledger, 1, domain.TransactionTypeIncome, "75", testutil.Date(2024, time.March, 3))
		invalidator.Apply(transactionChange(testUserID, tx))
		return before, err
	}

	march, err := svc.ComputeMonthlySummary(testUserID, 2024, 3)
	require.NoError(t, err)
	assert.True(t, march.TotalIncome.IsZero())

	march, err = svc.ComputeMonthlySummary(testUserID, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "75.00", march.TotalIncome.StringFixed(2))
}
