package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	MinForecastMonths     = 1
	MaxForecastMonths     = 60
	DefaultForecastMonths = 12
)

// ForecastPeriod is one projected month. Values are exact; rounding to whole
// currency units happens only when a period is rendered.
type ForecastPeriod struct {
	Year     int
	Month    int
	Income   decimal.Decimal
	Expenses decimal.Decimal
	NetFlow  decimal.Decimal
	Balance  decimal.Decimal
}

// Label returns the YYYY-MM label of the period
func (p ForecastPeriod) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Rounded returns the period with every value rounded to whole currency units
func (p ForecastPeriod) Rounded() ForecastPeriod {
	return ForecastPeriod{
		Year:     p.Year,
		Month:    p.Month,
		Income:   p.Income.Round(0),
		Expenses: p.Expenses.Round(0),
		NetFlow:  p.NetFlow.Round(0),
		Balance:  p.Balance.Round(0),
	}
}

// Forecast is a projected balance trajectory
type Forecast struct {
	StartBalance       decimal.Decimal
	AverageIncome      decimal.Decimal
	AverageExpenses    decimal.Decimal
	Periods            []ForecastPeriod
	FinalBalance       decimal.Decimal
	GrowthPercent      *decimal.Decimal
	FirstNegativeIndex int
}

// HasNegativePeriod reports whether a projected balance rounds to a value below zero
func (f *Forecast) HasNegativePeriod() bool {
	return f.FirstNegativeIndex >= 0
}

// OverlaidPeriod pairs a base period with its simulated counterpart
type OverlaidPeriod struct {
	Base               ForecastPeriod
	SimulatedIncome    decimal.Decimal
	SimulatedExpenses  decimal.Decimal
	OverlaidIncome     decimal.Decimal
	OverlaidExpenses   decimal.Decimal
	OverlaidNetFlow    decimal.Decimal
	OverlaidBalance    decimal.Decimal
	Difference         decimal.Decimal
	AppliedSimulations []int32
}

// SimulationOverlay is a base forecast combined with a set of simulations
type SimulationOverlay struct {
	Periods       []OverlaidPeriod
	SimulationIDs []int32
	BaseFinal     decimal.Decimal
	OverlaidFinal decimal.Decimal
	TotalImpact   decimal.Decimal
	AverageImpact decimal.Decimal
}
