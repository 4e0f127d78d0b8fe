package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/service"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForecastHandler(ledger *testutil.MockLedger) *ForecastHandler {
	calc := service.NewCalculationService(ledger.Accounts, ledger.Transactions, ledger.Cards)
	forecast := service.NewForecastService(ledger.Transactions, calc, service.DefaultForecastConfig(), service.NewRandomSource(42))
	return NewForecastHandler(forecast, service.NewSimulationService(ledger.Simulations, forecast))
}

func TestGetForecast_DefaultsToTwelveMonths(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedLedgerBasics(ledger)
	handler := newForecastHandler(ledger)

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/forecasts", "")
	require.NoError(t, handler.GetForecast(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Periods, domain.DefaultForecastMonths)

	// No history means a flat projection
	assert.Equal(t, "1000.00", response.StartBalance)
	assert.Equal(t, "1000", response.FinalBalance)
	for _, p := range response.Periods {
		assert.Equal(t, "1000", p.Balance)
		assert.Equal(t, "0", p.NetFlow)
	}
	require.NotNil(t, response.GrowthPercent)
	assert.Equal(t, "0.00", *response.GrowthPercent)
	assert.Nil(t, response.FirstNegativeMonth)
}

func TestGetForecast_InvalidMonths(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"not a number", "months=twelve"},
		{"zero", "months=0"},
		{"above maximum", "months=61"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := newForecastHandler(testutil.NewMockLedger())

			c, rec := newUserContext(e, http.MethodGet, "/api/v1/forecasts?"+tt.query, "")
			require.NoError(t, handler.GetForecast(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, "months", problem.Errors[0].Field)
		})
	}
}

func TestGetSimulationOverlay_ActiveSimulations(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedLedgerBasics(ledger)
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 1, UserID: 1, Name: "Raise", Type: domain.TransactionTypeIncome,
		Value: testutil.Money("100"), StartDate: testutil.Date(2020, 1, 1), IsActive: true,
	})
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 2, UserID: 1, Name: "Car", Type: domain.TransactionTypeExpense,
		Value: testutil.Money("500"), StartDate: testutil.Date(2020, 1, 1), IsActive: false,
	})
	handler := newForecastHandler(ledger)

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/forecasts/simulations?months=3", "")
	require.NoError(t, handler.GetSimulationOverlay(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response SimulationOverlayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, []int32{1}, response.SimulationIDs)
	assert.Equal(t, "1000", response.BaseFinal)
	assert.Equal(t, "1300", response.OverlaidFinal)
	assert.Equal(t, "300", response.TotalImpact)
	assert.Equal(t, "100.00", response.AverageImpact)

	require.Len(t, response.Periods, 3)
	expected := []string{"1100", "1200", "1300"}
	for i, p := range response.Periods {
		assert.Equal(t, expected[i], p.Balance)
		assert.Equal(t, "1000", p.BaseBalance)
		assert.Equal(t, []int32{1}, p.AppliedSimulations)
	}
}

func TestGetSimulationOverlay_ExplicitIDs(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	seedLedgerBasics(ledger)
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 2, UserID: 1, Name: "Car", Type: domain.TransactionTypeExpense,
		Value: testutil.Money("500"), StartDate: testutil.Date(2020, 1, 1), IsActive: false,
	})
	handler := newForecastHandler(ledger)

	c, rec := newUserContext(e, http.MethodGet, "/api/v1/forecasts/simulations?months=2&ids=2", "")
	require.NoError(t, handler.GetSimulationOverlay(c))

	var response SimulationOverlayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "0", response.OverlaidFinal)
	assert.Equal(t, "-1000", response.TotalImpact)
}

func TestGetSimulationOverlay_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"malformed ids", "ids=1,x", http.StatusBadRequest},
		{"unknown simulation", "ids=99", http.StatusNotFound},
		{"months out of range", "months=100", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			ledger := testutil.NewMockLedger()
			seedLedgerBasics(ledger)
			handler := newForecastHandler(ledger)

			c, rec := newUserContext(e, http.MethodGet, "/api/v1/forecasts/simulations?"+tt.query, "")
			require.NoError(t, handler.GetSimulationOverlay(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
