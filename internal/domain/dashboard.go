package domain

import "github.com/shopspring/decimal"

// CategoryTotal is the summed expense value for one category in a period
type CategoryTotal struct {
	CategoryID   int32           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Color        string          `json:"color"`
	Total        decimal.Decimal `json:"total"`
}

// MonthlySummary is the income/expense aggregate of one calendar month
type MonthlySummary struct {
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	TotalIncome   decimal.Decimal  `json:"totalIncome"`
	TotalExpenses decimal.Decimal  `json:"totalExpenses"`
	ByCategory    []*CategoryTotal `json:"byCategory"`
}

// RangeSummary is the aggregate of an arbitrary inclusive date range
type RangeSummary struct {
	Range            DateRange        `json:"-"`
	TotalIncome      decimal.Decimal  `json:"totalIncome"`
	TotalExpenses    decimal.Decimal  `json:"totalExpenses"`
	Balance          decimal.Decimal  `json:"balance"`
	TransactionCount int              `json:"transactionCount"`
	ByCategory       []*CategoryTotal `json:"byCategory"`
}

// MonthTrend is one month of a trend series
type MonthTrend struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// ReportPeriod names a preset reporting window
type ReportPeriod string

const (
	ReportPeriodThisMonth   ReportPeriod = "thisMonth"
	ReportPeriodLastMonth   ReportPeriod = "lastMonth"
	ReportPeriodThisYear    ReportPeriod = "thisYear"
	ReportPeriodLast3Months ReportPeriod = "last3Months"
)

// ReportFilter narrows a report to a range and optionally one account or category
type ReportFilter struct {
	Range      DateRange
	AccountID  *int32
	CategoryID *int32
}

// DashboardSummary contains the main dashboard metrics for a month
type DashboardSummary struct {
	Year                   int              `json:"year"`
	Month                  int              `json:"month"`
	TotalIncome            decimal.Decimal  `json:"totalIncome"`
	TotalExpenses          decimal.Decimal  `json:"totalExpenses"`
	TotalBalance           decimal.Decimal  `json:"totalBalance"`
	MonthlySavings         decimal.Decimal  `json:"monthlySavings"`
	TransactionsByCategory []*CategoryTotal `json:"transactionsByCategory"`
}
