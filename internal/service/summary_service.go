package service

import (
	"sort"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/util"
	"github.com/shopspring/decimal"
)

// SummaryService aggregates income and expenses over calendar periods
type SummaryService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	summaries       *cache.Store[*domain.MonthlySummary]
	now             func() time.Time
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository) *SummaryService {
	return &SummaryService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		now:             time.Now,
	}
}

// SetCache attaches a store for monthly summaries
func (s *SummaryService) SetCache(summaries *cache.Store[*domain.MonthlySummary]) {
	s.summaries = summaries
}

// ComputeMonthlySummary aggregates the transactions dated within the month.
// Only expenses are broken down by category.
func (s *SummaryService) ComputeMonthlySummary(userID int32, year, month int) (*domain.MonthlySummary, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, domain.ErrInvalidPeriod
	}

	key := cache.Key{Aggregate: cache.AggregateMonthlySummary, UserID: userID, EntityID: cache.MonthEntity(year, month)}
	if s.summaries != nil {
		if v, ok := s.summaries.Get(key); ok {
			return v, nil
		}
	}

	gen := s.summaries.Generation(userID, cache.AggregateMonthlySummary)
	first, last := util.MonthBounds(year, month)
	transactions, err := s.transactionRepo.ListByDateRange(userID, domain.DateRange{Start: first, End: last})
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	income, expenses := sumByType(transactions)
	summary := &domain.MonthlySummary{
		Year:          year,
		Month:         month,
		TotalIncome:   income,
		TotalExpenses: expenses,
		ByCategory:    expensesByCategory(transactions, categories),
	}

	s.summaries.SetIfCurrent(key, summary, gen)
	return summary, nil
}

// ComputeRangeSummary aggregates the transactions matching the filter
func (s *SummaryService) ComputeRangeSummary(userID int32, filter domain.ReportFilter) (*domain.RangeSummary, error) {
	transactions, categories, err := s.filtered(userID, filter)
	if err != nil {
		return nil, err
	}

	income, expenses := sumByType(transactions)
	return &domain.RangeSummary{
		Range:            filter.Range,
		TotalIncome:      income,
		TotalExpenses:    expenses,
		Balance:          income.Sub(expenses),
		TransactionCount: len(transactions),
		ByCategory:       expensesByCategory(transactions, categories),
	}, nil
}

// ComputeMonthlyTrend returns per-month totals for the transactions matching
// the filter, oldest month first. Months without activity are omitted.
func (s *SummaryService) ComputeMonthlyTrend(userID int32, filter domain.ReportFilter) ([]*domain.MonthTrend, error) {
	transactions, _, err := s.filtered(userID, filter)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]*domain.MonthTrend)
	for _, t := range transactions {
		key := t.Date.Year()*12 + int(t.Date.Month()) - 1
		m, ok := byMonth[key]
		if !ok {
			m = &domain.MonthTrend{Year: t.Date.Year(), Month: int(t.Date.Month())}
			byMonth[key] = m
		}
		switch t.Type {
		case domain.TransactionTypeIncome:
			m.Income = m.Income.Add(t.Value)
		case domain.TransactionTypeExpense:
			m.Expenses = m.Expenses.Add(t.Value)
		}
	}

	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	trend := make([]*domain.MonthTrend, len(keys))
	for i, k := range keys {
		m := byMonth[k]
		m.Net = m.Income.Sub(m.Expenses)
		trend[i] = m
	}
	return trend, nil
}

// ReportRange resolves a preset period to a date range relative to today
func (s *SummaryService) ReportRange(period domain.ReportPeriod) (domain.DateRange, error) {
	return ReportRange(period, s.now())
}

// ReportRange resolves a preset period to a date range relative to today
func ReportRange(period domain.ReportPeriod, today time.Time) (domain.DateRange, error) {
	today = domain.DateOnly(today)
	year, month := today.Year(), int(today.Month())

	switch period {
	case domain.ReportPeriodThisMonth:
		first, last := util.MonthBounds(year, month)
		return domain.DateRange{Start: first, End: last}, nil
	case domain.ReportPeriodLastMonth:
		first, last := util.MonthBounds(util.PreviousMonth(year, month))
		return domain.DateRange{Start: first, End: last}, nil
	case domain.ReportPeriodThisYear:
		return domain.DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	case domain.ReportPeriodLast3Months:
		return domain.DateRange{Start: today.AddDate(0, -3, 0), End: today}, nil
	}
	return domain.DateRange{}, domain.ErrInvalidPeriod
}

func (s *SummaryService) filtered(userID int32, filter domain.ReportFilter) ([]*domain.Transaction, []*domain.Category, error) {
	if filter.Range.Start.IsZero() || filter.Range.End.IsZero() || domain.DateOnly(filter.Range.End).Before(domain.DateOnly(filter.Range.Start)) {
		return nil, nil, domain.ErrInvalidDateRange
	}

	transactions, err := s.transactionRepo.ListByDateRange(userID, filter.Range)
	if err != nil {
		return nil, nil, err
	}
	categories, err := s.categoryRepo.GetAllByUser(userID)
	if err != nil {
		return nil, nil, err
	}

	if filter.AccountID == nil && filter.CategoryID == nil {
		return transactions, categories, nil
	}
	matched := make([]*domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.CategoryID != nil && t.CategoryID != *filter.CategoryID {
			continue
		}
		matched = append(matched, t)
	}
	return matched, categories, nil
}

func sumByType(transactions []*domain.Transaction) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(t.Value)
		case domain.TransactionTypeExpense:
			expenses = expenses.Add(t.Value)
		}
	}
	return income, expenses
}

// expensesByCategory totals expenses per category. Transactions whose category
// is not among the user's categories are left out, as are categories without
// expenses. Largest total first, ties broken by category ID.
func expensesByCategory(transactions []*domain.Transaction, categories []*domain.Category) []*domain.CategoryTotal {
	known := make(map[int32]*domain.Category, len(categories))
	for _, c := range categories {
		known[c.ID] = c
	}

	totals := make(map[int32]*domain.CategoryTotal)
	for _, t := range transactions {
		if t.Type != domain.TransactionTypeExpense {
			continue
		}
		c, ok := known[t.CategoryID]
		if !ok {
			continue
		}
		ct, ok := totals[c.ID]
		if !ok {
			ct = &domain.CategoryTotal{CategoryID: c.ID, CategoryName: c.Name, Color: c.Color}
			totals[c.ID] = ct
		}
		ct.Total = ct.Total.Add(t.Value)
	}

	result := make([]*domain.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		if ct.Total.IsZero() {
			continue
		}
		result = append(result, ct)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].CategoryID < result[j].CategoryID
	})
	return result
}
