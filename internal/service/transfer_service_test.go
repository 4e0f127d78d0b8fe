package service

import (
	"testing"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransferLedger(t *testing.T) *testutil.MockLedger {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	ledger.Accounts.AddAccount(&domain.Account{
		ID: 2, UserID: testUserID, Name: "Savings", Bank: "Itau", Type: domain.AccountTypeSavings,
	})
	return ledger
}

func TestCreateTransfer_MovesBalance(t *testing.T) {
	ledger := newTransferLedger(t)
	service := NewTransferService(ledger.Transfers, ledger.Accounts)
	publisher := &recordingPublisher{}
	notifier := NewChangeNotifier(nil)
	notifier.SetEventPublisher(publisher)
	service.SetNotifier(notifier)

	blank := "  "
	transfer, err := service.CreateTransfer(testUserID, CreateTransferInput{
		FromAccountID: 1, ToAccountID: 2, Value: money("300"),
		Date: testutil.Date(2024, time.May, 2), Description: &blank,
	})
	require.NoError(t, err)
	assert.Nil(t, transfer.Description, "blank descriptions are dropped")

	calc := newCalculationService(ledger)
	from, err := calc.ComputeAccountBalance(testUserID, 1)
	require.NoError(t, err)
	to, err := calc.ComputeAccountBalance(testUserID, 2)
	require.NoError(t, err)
	assert.Equal(t, "700", from.String())
	assert.Equal(t, "300", to.String())

	total, err := calc.TotalBalance(testUserID)
	require.NoError(t, err)
	assert.Equal(t, "1000", total.String(), "transfers never change the total")

	require.Len(t, publisher.events, 2)
	payload := publisher.events[1].Payload.(websocket.InvalidationPayload)
	assert.Equal(t, []int32{1, 2}, payload.AccountIDs)
}

func TestCreateTransfer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateTransferInput
		wantErr error
	}{
		{"same account", CreateTransferInput{FromAccountID: 1, ToAccountID: 1, Value: money("1"), Date: testutil.Date(2024, 1, 1)}, domain.ErrSameAccountTransfer},
		{"zero value", CreateTransferInput{FromAccountID: 1, ToAccountID: 2, Value: money("0"), Date: testutil.Date(2024, 1, 1)}, domain.ErrInvalidValue},
		{"sub-cent value", CreateTransferInput{FromAccountID: 1, ToAccountID: 2, Value: money("0.004"), Date: testutil.Date(2024, 1, 1)}, domain.ErrValuePrecision},
		{"missing date", CreateTransferInput{FromAccountID: 1, ToAccountID: 2, Value: money("1")}, domain.ErrDateRequired},
		{"unknown destination", CreateTransferInput{FromAccountID: 1, ToAccountID: 9, Value: money("1"), Date: testutil.Date(2024, 1, 1)}, domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newTransferLedger(t)
			service := NewTransferService(ledger.Transfers, ledger.Accounts)

			_, err := service.CreateTransfer(testUserID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, ledger.Transfers.Transfers)
		})
	}
}

func TestDeleteTransfer(t *testing.T) {
	ledger := newTransferLedger(t)
	ledger.Transfers.AddTransfer(&domain.Transfer{
		ID: 4, UserID: testUserID, FromAccountID: 1, ToAccountID: 2,
		Value: money("10"), Date: testutil.Date(2024, 2, 2),
	})
	service := NewTransferService(ledger.Transfers, ledger.Accounts)

	require.NoError(t, service.DeleteTransfer(testUserID, 4))
	assert.ErrorIs(t, service.DeleteTransfer(testUserID, 4), domain.ErrTransferNotFound)
}
