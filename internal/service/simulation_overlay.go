package service

import (
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ApplySimulations overlays simulations on a base forecast. Every simulation
// whose month window covers a period adds its value to that period's income
// or expenses; effects stack and carry into later balances. base is not modified.
func ApplySimulations(base *domain.Forecast, simulations []*domain.Simulation) *domain.SimulationOverlay {
	overlay := &domain.SimulationOverlay{
		Periods:       make([]domain.OverlaidPeriod, 0, len(base.Periods)),
		SimulationIDs: make([]int32, 0, len(simulations)),
		BaseFinal:     base.FinalBalance,
		OverlaidFinal: base.FinalBalance,
	}
	for _, sim := range simulations {
		overlay.SimulationIDs = append(overlay.SimulationIDs, sim.ID)
	}

	cumulative := decimal.Zero
	for _, p := range base.Periods {
		op := domain.OverlaidPeriod{
			Base:               p,
			SimulatedIncome:    decimal.Zero,
			SimulatedExpenses:  decimal.Zero,
			AppliedSimulations: make([]int32, 0),
		}
		for _, sim := range simulations {
			if !sim.AppliesTo(p.Year, time.Month(p.Month)) {
				continue
			}
			switch sim.Type {
			case domain.TransactionTypeIncome:
				op.SimulatedIncome = op.SimulatedIncome.Add(sim.Value)
			case domain.TransactionTypeExpense:
				op.SimulatedExpenses = op.SimulatedExpenses.Add(sim.Value)
			default:
				continue
			}
			op.AppliedSimulations = append(op.AppliedSimulations, sim.ID)
		}

		cumulative = cumulative.Add(op.SimulatedIncome).Sub(op.SimulatedExpenses)
		op.OverlaidIncome = p.Income.Add(op.SimulatedIncome)
		op.OverlaidExpenses = p.Expenses.Add(op.SimulatedExpenses)
		op.OverlaidNetFlow = op.OverlaidIncome.Sub(op.OverlaidExpenses)
		op.OverlaidBalance = p.Balance.Add(cumulative)
		op.Difference = op.OverlaidBalance.Sub(p.Balance)
		overlay.Periods = append(overlay.Periods, op)
	}

	if n := len(overlay.Periods); n > 0 {
		overlay.OverlaidFinal = overlay.Periods[n-1].OverlaidBalance
		overlay.TotalImpact = overlay.OverlaidFinal.Sub(overlay.BaseFinal)
		overlay.AverageImpact = overlay.TotalImpact.Div(decimal.NewFromInt(int64(n)))
	}
	return overlay
}
