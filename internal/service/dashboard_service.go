package service

import (
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService handles dashboard-related business logic
type DashboardService struct {
	summaryService *SummaryService
	calcService    *CalculationService
	now            func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(summaryService *SummaryService, calcService *CalculationService) *DashboardService {
	return &DashboardService{
		summaryService: summaryService,
		calcService:    calcService,
		now:            time.Now,
	}
}

// GetSummary returns the dashboard summary for the current month
func (s *DashboardService) GetSummary(userID int32) (*domain.DashboardSummary, error) {
	now := s.now()
	return s.GetSummaryForMonth(userID, now.Year(), int(now.Month()))
}

// GetSummaryForMonth returns the dashboard summary for a specific month.
// The month aggregate and the total balance are read concurrently.
func (s *DashboardService) GetSummaryForMonth(userID int32, year, month int) (*domain.DashboardSummary, error) {
	var (
		summary      *domain.MonthlySummary
		totalBalance decimal.Decimal
		g            errgroup.Group
	)
	g.Go(func() error {
		var err error
		summary, err = s.summaryService.ComputeMonthlySummary(userID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		totalBalance, err = s.calcService.TotalBalance(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.DashboardSummary{
		Year:                   year,
		Month:                  month,
		TotalIncome:            summary.TotalIncome,
		TotalExpenses:          summary.TotalExpenses,
		TotalBalance:           totalBalance,
		MonthlySavings:         summary.TotalIncome.Sub(summary.TotalExpenses),
		TransactionsByCategory: summary.ByCategory,
	}, nil
}
