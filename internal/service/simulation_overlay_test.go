package service

import (
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatForecast is a twelve month 2024 forecast with no income or expenses
func flatForecast(balance string) *domain.Forecast {
	return BuildForecast(ForecastInput{
		StartBalance: money(balance),
		StartYear:    2024,
		StartMonth:   1,
		Months:       12,
	})
}

func TestApplySimulations_WindowInclusion(t *testing.T) {
	end := testutil.Date(2024, time.May, 31)
	sim := &domain.Simulation{
		ID: 1, Type: domain.TransactionTypeExpense, Value: money("100"),
		StartDate: testutil.Date(2024, time.March, 1), EndDate: &end, IsActive: true,
	}

	overlay := ApplySimulations(flatForecast("1000"), []*domain.Simulation{sim})
	require.Len(t, overlay.Periods, 12)

	for _, p := range overlay.Periods {
		applied := p.Base.Month >= 3 && p.Base.Month <= 5
		if applied {
			assert.Equal(t, "100.00", p.SimulatedExpenses.StringFixed(2), "month %d", p.Base.Month)
			assert.Equal(t, []int32{1}, p.AppliedSimulations)
		} else {
			assert.True(t, p.SimulatedExpenses.IsZero(), "month %d", p.Base.Month)
			assert.Empty(t, p.AppliedSimulations)
		}
	}

	assert.Equal(t, "1000.00", overlay.Periods[1].OverlaidBalance.StringFixed(2))
	assert.Equal(t, "900.00", overlay.Periods[2].OverlaidBalance.StringFixed(2))
	assert.Equal(t, "700.00", overlay.Periods[4].OverlaidBalance.StringFixed(2))
	assert.Equal(t, "700.00", overlay.Periods[11].OverlaidBalance.StringFixed(2), "effect carries after the window")
	assert.Equal(t, "-300.00", overlay.TotalImpact.StringFixed(2))
	assert.Equal(t, "-25.00", overlay.AverageImpact.StringFixed(2))
}

func TestApplySimulations_OpenEnded(t *testing.T) {
	sim := &domain.Simulation{
		ID: 7, Type: domain.TransactionTypeIncome, Value: money("50"),
		StartDate: testutil.Date(2024, time.October, 20),
	}

	overlay := ApplySimulations(flatForecast("0"), []*domain.Simulation{sim})

	assert.True(t, overlay.Periods[8].SimulatedIncome.IsZero())
	assert.Equal(t, "50.00", overlay.Periods[9].SimulatedIncome.StringFixed(2), "a mid-month start covers the whole month")
	assert.Equal(t, "50.00", overlay.Periods[11].SimulatedIncome.StringFixed(2))
	assert.Equal(t, "150.00", overlay.OverlaidFinal.StringFixed(2))
	assert.Equal(t, "0.00", overlay.BaseFinal.StringFixed(2))
}

func TestApplySimulations_Stacking(t *testing.T) {
	base := flatForecast("1000")
	sims := []*domain.Simulation{
		{ID: 1, Type: domain.TransactionTypeIncome, Value: money("100"), StartDate: testutil.Date(2024, time.January, 1)},
		{ID: 2, Type: domain.TransactionTypeExpense, Value: money("30"), StartDate: testutil.Date(2024, time.January, 1)},
		{ID: 3, Type: domain.TransactionTypeIncome, Value: money("20"), StartDate: testutil.Date(2024, time.January, 1)},
	}

	overlay := ApplySimulations(base, sims)

	first := overlay.Periods[0]
	assert.Equal(t, "120.00", first.SimulatedIncome.StringFixed(2))
	assert.Equal(t, "30.00", first.SimulatedExpenses.StringFixed(2))
	assert.Equal(t, "90.00", first.OverlaidNetFlow.StringFixed(2))
	assert.Equal(t, "1090.00", first.OverlaidBalance.StringFixed(2))
	assert.Equal(t, "90.00", first.Difference.StringFixed(2))
	assert.Equal(t, []int32{1, 2, 3}, first.AppliedSimulations)

	assert.Equal(t, "2080.00", overlay.OverlaidFinal.StringFixed(2))
	assert.Equal(t, "1080.00", overlay.TotalImpact.StringFixed(2))
	assert.Equal(t, []int32{1, 2, 3}, overlay.SimulationIDs)
}

func TestApplySimulations_DoesNotModifyBase(t *testing.T) {
	base := flatForecast("1000")
	sim := &domain.Simulation{ID: 1, Type: domain.TransactionTypeIncome, Value: money("100"), StartDate: testutil.Date(2024, time.January, 1)}

	_ = ApplySimulations(base, []*domain.Simulation{sim})

	for _, p := range base.Periods {
		assert.Equal(t, "1000.00", p.Balance.StringFixed(2))
	}
	assert.Equal(t, "1000.00", base.FinalBalance.StringFixed(2))
}

func TestApplySimulations_NoSimulations(t *testing.T) {
	overlay := ApplySimulations(flatForecast("500"), nil)

	assert.Len(t, overlay.Periods, 12)
	assert.True(t, overlay.TotalImpact.IsZero())
	assert.Empty(t, overlay.SimulationIDs)
	for _, p := range overlay.Periods {
		assert.True(t, p.OverlaidBalance.Equal(p.Base.Balance))
	}
}
