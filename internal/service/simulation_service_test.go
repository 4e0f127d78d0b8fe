package service

import (
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimulationService(ledger *testutil.MockLedger) *SimulationService {
	forecast := newForecastService(ledger, fixedSource(0.5), testutil.Date(2024, time.January, 10))
	return NewSimulationService(ledger.Simulations, forecast)
}

func TestCreateSimulation_Success(t *testing.T) {
	ledger := testutil.NewMockLedger()
	svc := newSimulationService(ledger)
	publisher := &recordingPublisher{}
	notifier := NewChangeNotifier(nil)
	notifier.SetEventPublisher(publisher)
	svc.SetNotifier(notifier)

	sim, err := svc.CreateSimulation(testUserID, CreateSimulationInput{
		Name:      "  Gym membership ",
		Type:      domain.TransactionTypeExpense,
		Value:     money("120"),
		StartDate: time.Date(2024, time.March, 3, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "Gym membership", sim.Name)
	assert.True(t, sim.IsActive, "simulations start active")
	assert.Nil(t, sim.EndDate)
	assert.Equal(t, testutil.Date(2024, time.March, 3), sim.StartDate)
	assert.Equal(t, []string{"simulation.created"}, publisher.types(), "simulations never invalidate ledger aggregates")
}

func TestCreateSimulation_Validation(t *testing.T) {
	end := testutil.Date(2024, time.February, 1)
	valid := CreateSimulationInput{
		Name: "Raise", Type: domain.TransactionTypeIncome, Value: money("100"),
		StartDate: testutil.Date(2024, time.March, 1),
	}

	tests := []struct {
		name    string
		mutate  func(in *CreateSimulationInput)
		wantErr error
	}{
		{"empty name", func(in *CreateSimulationInput) { in.Name = "   " }, domain.ErrNameRequired},
		{"bad type", func(in *CreateSimulationInput) { in.Type = "transfer" }, domain.ErrInvalidEntryType},
		{"zero value", func(in *CreateSimulationInput) { in.Value = money("0") }, domain.ErrInvalidValue},
		{"negative value", func(in *CreateSimulationInput) { in.Value = money("-5") }, domain.ErrInvalidValue},
		{"sub-cent value", func(in *CreateSimulationInput) { in.Value = money("99.995") }, domain.ErrValuePrecision},
		{"missing start", func(in *CreateSimulationInput) { in.StartDate = time.Time{} }, domain.ErrDateRequired},
		{"end before start", func(in *CreateSimulationInput) { in.EndDate = &end }, domain.ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := testutil.NewMockLedger()
			svc := newSimulationService(ledger)
			input := valid
			tt.mutate(&input)

			_, err := svc.CreateSimulation(testUserID, input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, ledger.Simulations.Simulations)
		})
	}
}

func TestToggleSimulation(t *testing.T) {
	ledger := testutil.NewMockLedger()
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 3, UserID: testUserID, Name: "Rent", Type: domain.TransactionTypeExpense,
		Value: money("900"), StartDate: testutil.Date(2024, time.January, 1), IsActive: true,
	})
	svc := newSimulationService(ledger)

	sim, err := svc.ToggleSimulation(testUserID, 3)
	require.NoError(t, err)
	assert.False(t, sim.IsActive)

	sim, err = svc.ToggleSimulation(testUserID, 3)
	require.NoError(t, err)
	assert.True(t, sim.IsActive)

	_, err = svc.ToggleSimulation(testUserID+1, 3)
	assert.ErrorIs(t, err, domain.ErrSimulationNotFound)
}

func TestUpdateSimulation_ClearEnd(t *testing.T) {
	end := testutil.Date(2024, time.June, 30)
	ledger := testutil.NewMockLedger()
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 1, UserID: testUserID, Name: "Course", Type: domain.TransactionTypeExpense,
		Value: money("300"), StartDate: testutil.Date(2024, time.January, 1), EndDate: &end, IsActive: true,
	})
	svc := newSimulationService(ledger)

	value := money("350")
	updated, err := svc.UpdateSimulation(testUserID, 1, domain.SimulationUpdate{Value: &value, ClearEnd: true})
	require.NoError(t, err)

	assert.Nil(t, updated.EndDate)
	assert.Equal(t, "350", updated.Value.String())
	assert.Equal(t, "Course", updated.Name)
}

func TestDeleteSimulation_NotFound(t *testing.T) {
	svc := newSimulationService(testutil.NewMockLedger())

	err := svc.DeleteSimulation(testUserID, 99)
	assert.ErrorIs(t, err, domain.ErrSimulationNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func seedSimulations(ledger *testutil.MockLedger) {
	start := testutil.Date(2024, time.January, 1)
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 1, UserID: testUserID, Name: "Bonus", Type: domain.TransactionTypeIncome,
		Value: money("100"), StartDate: start, IsActive: true,
	})
	ledger.Simulations.AddSimulation(&domain.Simulation{
		ID: 2, UserID: testUserID, Name: "Car", Type: domain.TransactionTypeExpense,
		Value: money("40"), StartDate: start, IsActive: false,
	})
}

func TestOverlay_DefaultsToActiveSimulations(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	seedSimulations(ledger)
	svc := newSimulationService(ledger)

	overlay, err := svc.Overlay(testUserID, 6, nil)
	require.NoError(t, err)

	assert.Equal(t, []int32{1}, overlay.SimulationIDs)
	require.Len(t, overlay.Periods, 6)
	assert.Equal(t, "1000.00", overlay.BaseFinal.StringFixed(2))
	assert.Equal(t, "1600.00", overlay.OverlaidFinal.StringFixed(2))
}

func TestOverlay_ExplicitIDsIncludeInactive(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	seedSimulations(ledger)
	svc := newSimulationService(ledger)

	overlay, err := svc.Overlay(testUserID, 2, []int32{2, 2})
	require.NoError(t, err)

	assert.Equal(t, []int32{2}, overlay.SimulationIDs, "duplicates are ignored")
	assert.Equal(t, "-80.00", overlay.TotalImpact.StringFixed(2))
}

func TestOverlay_Errors(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	seedSimulations(ledger)
	svc := newSimulationService(ledger)

	_, err := svc.Overlay(testUserID, 12, []int32{1, 42})
	assert.ErrorIs(t, err, domain.ErrSimulationNotFound)

	_, err = svc.Overlay(testUserID, 61, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidForecastMonths)
}
