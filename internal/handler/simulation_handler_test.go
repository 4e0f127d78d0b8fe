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

func newSimulationHandler(ledger *testutil.MockLedger) *SimulationHandler {
	calc := service.NewCalculationService(ledger.Accounts, ledger.Transactions, ledger.Cards)
	forecast := service.NewForecastService(ledger.Transactions, calc, service.DefaultForecastConfig(), service.NewRandomSource(1))
	return NewSimulationHandler(service.NewSimulationService(ledger.Simulations, forecast))
}

func TestCreateSimulation_Success(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	handler := newSimulationHandler(ledger)

	c, rec := newUserContext(e, http.MethodPost, "/api/v1/simulations", `{
		"name": " New job ", "type": "income", "value": "1500",
		"startDate": "2024-05-20", "endDate": "2024-12-01"
	}`)

	require.NoError(t, handler.CreateSimulation(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response SimulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "New job", response.Name)
	assert.Equal(t, "1500.00", response.Value)
	assert.Equal(t, "2024-05-20", response.StartDate)
	require.NotNil(t, response.EndDate)
	assert.Equal(t, "2024-12-01", *response.EndDate)
	assert.True(t, response.IsActive)
}

func TestCreateSimulation_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing start", `{"name": "Job", "type": "income", "value": "10"}`, "date"},
		{"bad start", `{"name": "Job", "type": "income", "value": "10", "startDate": "May 2024"}`, "startDate"},
		{"end before start", `{"name": "Job", "type": "income", "value": "10", "startDate": "2024-05-01", "endDate": "2024-04-01"}`, "endDate"},
		{"bad type", `{"name": "Job", "type": "bonus", "value": "10", "startDate": "2024-05-01"}`, "type"},
		{"bad value", `{"name": "Job", "type": "income", "value": "ten", "startDate": "2024-05-01"}`, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := newSimulationHandler(testutil.NewMockLedger())

			c, rec := newUserContext(e, http.MethodPost, "/api/v1/simulations", tt.body)
			require.NoError(t, handler.CreateSimulation(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestToggleSimulation(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 4, UserID: 1, Name: "Gym", Type: domain.TransactionTypeExpense,
		Value: testutil.Money("90"), StartDate: testutil.Date(2024, 1, 1), IsActive: true,
	})
	handler := newSimulationHandler(ledger)

	c, rec := newUserContext(e, http.MethodPatch, "/api/v1/simulations/4/toggle", "")
	c.SetParamNames("id")
	c.SetParamValues("4")

	require.NoError(t, handler.ToggleSimulation(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response SimulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.IsActive)
}

func TestUpdateSimulation_ClearEndDate(t *testing.T) {
	e := echo.New()
	ledger := testutil.NewMockLedger()
	end := testutil.Date(2024, 6, 30)
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 5, UserID: 1, Name: "Rent", Type: domain.TransactionTypeExpense,
		Value: testutil.Money("1200"), StartDate: testutil.Date(2024, 1, 1), EndDate: &end, IsActive: true,
	})
	handler := newSimulationHandler(ledger)

	c, rec := newUserContext(e, http.MethodPut, "/api/v1/simulations/5", `{"clearEndDate": true, "value": "1300"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, handler.UpdateSimulation(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response SimulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Nil(t, response.EndDate)
	assert.Equal(t, "1300.00", response.Value)
	assert.Equal(t, "Rent", response.Name)
}

func TestDeleteSimulation_NotFound(t *testing.T) {
	e := echo.New()
	handler := newSimulationHandler(testutil.NewMockLedger())

	c, rec := newUserContext(e, http.MethodDelete, "/api/v1/simulations/8", "")
	c.SetParamNames("id")
	c.SetParamValues("8")

	require.NoError(t, handler.DeleteSimulation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Simulation not found", decodeProblem(t, rec).Detail)
}
