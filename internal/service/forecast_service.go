package service

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// VariationSource yields values in [0, 1) used to vary projected months
type VariationSource interface {
	Float64() float64
}

// ForecastConfig holds the tunables of the projector
type ForecastConfig struct {
	// TrailingMonths is the history window averaged into a monthly baseline
	TrailingMonths int
	// IncomeVariation and ExpenseVariation bound the per-month deviation from
	// the baseline as a fraction, e.g. 0.10 for plus or minus 10%
	IncomeVariation  decimal.Decimal
	ExpenseVariation decimal.Decimal
}

// DefaultForecastConfig returns the default projector tunables
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		TrailingMonths:   3,
		IncomeVariation:  decimal.RequireFromString("0.10"),
		ExpenseVariation: decimal.RequireFromString("0.15"),
	}
}

// NewRandomSource returns a VariationSource seeded with seed, or from the
// clock when seed is zero
func NewRandomSource(seed uint64) VariationSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// ForecastService projects future balances from recent history
type ForecastService struct {
	transactionRepo domain.TransactionRepository
	calcService     *CalculationService
	config          ForecastConfig
	now             func() time.Time

	mu     sync.Mutex
	source VariationSource
}

// NewForecastService creates a new ForecastService
func NewForecastService(
	transactionRepo domain.TransactionRepository,
	calcService *CalculationService,
	config ForecastConfig,
	source VariationSource,
) *ForecastService {
	if config.TrailingMonths <= 0 {
		config.TrailingMonths = DefaultForecastConfig().TrailingMonths
	}
	return &ForecastService{
		transactionRepo: transactionRepo,
		calcService:     calcService,
		config:          config,
		source:          source,
		now:             time.Now,
	}
}

// ProjectBalances projects the user's total balance over the given number of
// months, starting with the current month
func (s *ForecastService) ProjectBalances(userID int32, months int) (*domain.Forecast, error) {
	if months < domain.MinForecastMonths || months > domain.MaxForecastMonths {
		return nil, domain.ErrInvalidForecastMonths
	}

	today := domain.DateOnly(s.now())
	window := domain.DateRange{Start: today.AddDate(0, -s.config.TrailingMonths, 0), End: today}

	var (
		startBalance decimal.Decimal
		history      []*domain.Transaction
		g            errgroup.Group
	)
	g.Go(func() error {
		var err error
		startBalance, err = s.calcService.TotalBalance(userID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.transactionRepo.ListByDateRange(userID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	income, expenses := sumByType(history)
	n := decimal.NewFromInt(int64(s.config.TrailingMonths))

	s.mu.Lock()
	forecast := BuildForecast(ForecastInput{
		StartBalance:     startBalance,
		AverageIncome:    income.Div(n),
		AverageExpenses:  expenses.Div(n),
		StartYear:        today.Year(),
		StartMonth:       int(today.Month()),
		Months:           months,
		IncomeVariation:  s.config.IncomeVariation,
		ExpenseVariation: s.config.ExpenseVariation,
		Source:           s.source,
	})
	s.mu.Unlock()

	log.Debug().
		Int32("user_id", userID).
		Int("months", months).
		Int("history", len(history)).
		Msg("Forecast projected")

	return forecast, nil
}

// ForecastInput is everything BuildForecast needs
type ForecastInput struct {
	StartBalance     decimal.Decimal
	AverageIncome    decimal.Decimal
	AverageExpenses  decimal.Decimal
	StartYear        int
	StartMonth       int
	Months           int
	IncomeVariation  decimal.Decimal
	ExpenseVariation decimal.Decimal
	// Source may be nil, in which case every month equals the baseline
	Source VariationSource
}

// BuildForecast projects a running balance month by month. For each month one
// income draw and then one expense draw are taken from the source.
func BuildForecast(in ForecastInput) *domain.Forecast {
	forecast := &domain.Forecast{
		StartBalance:       in.StartBalance,
		AverageIncome:      in.AverageIncome,
		AverageExpenses:    in.AverageExpenses,
		Periods:            make([]domain.ForecastPeriod, 0, in.Months),
		FinalBalance:       in.StartBalance,
		FirstNegativeIndex: -1,
	}

	balance := in.StartBalance
	for i := 0; i < in.Months; i++ {
		year, month := util.AddMonths(in.StartYear, in.StartMonth, i)
		income := in.AverageIncome.Mul(variationFactor(in.Source, in.IncomeVariation))
		expenses := in.AverageExpenses.Mul(variationFactor(in.Source, in.ExpenseVariation))
		net := income.Sub(expenses)
		balance = balance.Add(net)

		forecast.Periods = append(forecast.Periods, domain.ForecastPeriod{
			Year:     year,
			Month:    month,
			Income:   income,
			Expenses: expenses,
			NetFlow:  net,
			Balance:  balance,
		})
		// judged on the displayed whole-unit balance
		if forecast.FirstNegativeIndex < 0 && balance.Round(0).IsNegative() {
			forecast.FirstNegativeIndex = i
		}
	}

	forecast.FinalBalance = balance
	forecast.GrowthPercent = growthPercent(in.StartBalance, balance)
	return forecast
}

// variationFactor maps a draw r in [0, 1) to 1 + (r - 0.5) * 2 * bound
func variationFactor(source VariationSource, bound decimal.Decimal) decimal.Decimal {
	if source == nil {
		return decimal.NewFromInt(1)
	}
	r := decimal.NewFromFloat(source.Float64())
	return decimal.NewFromInt(1).Add(r.Sub(decimal.NewFromFloat(0.5)).Mul(decimal.NewFromInt(2)).Mul(bound))
}

func growthPercent(start, final decimal.Decimal) *decimal.Decimal {
	if start.IsZero() {
		return nil
	}
	g := final.Sub(start).Div(start).Mul(hundred).Round(2)
	return &g
}
