package service

import (
	"testing"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCardInput() CreateCardInput {
	return CreateCardInput{
		Name:        "Platinum",
		Brand:       domain.CardBrandMastercard,
		CreditLimit: money("5000"),
		CloseDay:    28,
		DueDay:      7,
	}
}

func TestCreateCard_Success(t *testing.T) {
	service := NewCardService(testutil.NewMockCardRepository())

	card, err := service.CreateCard(testUserID, validCardInput())
	require.NoError(t, err)

	assert.Equal(t, int32(1), card.ID)
	assert.Equal(t, "5000", card.CreditLimit.String())
	assert.Equal(t, 28, card.CloseDay)
}

func TestCreateCard_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateCardInput)
		wantErr error
	}{
		{"missing name", func(in *CreateCardInput) { in.Name = "" }, domain.ErrNameRequired},
		{"bad brand", func(in *CreateCardInput) { in.Brand = "diners" }, domain.ErrInvalidCardBrand},
		{"negative limit", func(in *CreateCardInput) { in.CreditLimit = money("-1") }, domain.ErrNegativeLimit},
		{"sub-cent limit", func(in *CreateCardInput) { in.CreditLimit = money("1500.001") }, domain.ErrLimitPrecision},
		{"close day zero", func(in *CreateCardInput) { in.CloseDay = 0 }, domain.ErrInvalidDay},
		{"due day 32", func(in *CreateCardInput) { in.DueDay = 32 }, domain.ErrInvalidDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewCardService(testutil.NewMockCardRepository())
			input := validCardInput()
			tt.mutate(&input)

			_, err := service.CreateCard(testUserID, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateCard_ZeroLimitAllowed(t *testing.T) {
	service := NewCardService(testutil.NewMockCardRepository())
	input := validCardInput()
	input.CreditLimit = money("0")

	_, err := service.CreateCard(testUserID, input)
	assert.NoError(t, err)
}

func TestUpdateCard(t *testing.T) {
	repo := testutil.NewMockCardRepository()
	repo.AddCard(&domain.Card{ID: 2, UserID: testUserID, Name: "Gold", Brand: domain.CardBrandVisa, CreditLimit: money("100"), CloseDay: 1, DueDay: 10})
	service := NewCardService(repo)

	day := 15
	card, err := service.UpdateCard(testUserID, 2, domain.CardUpdate{DueDay: &day})
	require.NoError(t, err)
	assert.Equal(t, 15, card.DueDay)
	assert.Equal(t, 1, card.CloseDay)

	bad := 0
	_, err = service.UpdateCard(testUserID, 2, domain.CardUpdate{CloseDay: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidDay)

	limit := money("250.125")
	_, err = service.UpdateCard(testUserID, 2, domain.CardUpdate{CreditLimit: &limit})
	assert.ErrorIs(t, err, domain.ErrLimitPrecision)
	assert.Equal(t, "100", repo.Cards[2].CreditLimit.String())

	_, err = service.UpdateCard(testUserID, 9, domain.CardUpdate{DueDay: &day})
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestDeleteCard_UnlinksTransactions(t *testing.T) {
	ledger := testutil.NewMockLedger()
	seedLedger(t, ledger)
	tx := addTx(ledger, 1, domain.TransactionTypeExpense, "50", testutil.Date(2024, 1, 5))
	cardID := int32(1)
	tx.CardID = &cardID
	tx.PaymentMethod = domain.PaymentMethodCreditCard
	service := NewCardService(ledger.Cards)

	require.NoError(t, service.DeleteCard(testUserID, 1))

	assert.Nil(t, ledger.Transactions.Transactions[1].CardID)
	assert.Len(t, ledger.Transactions.Transactions, 1, "transactions survive card deletion")
}
