package service

import (
	"strings"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// TransferService handles transfers between a user's own accounts
type TransferService struct {
	transferRepo domain.TransferRepository
	accountRepo  domain.AccountRepository
	notifier     *ChangeNotifier
}

// NewTransferService creates a new TransferService
func NewTransferService(transferRepo domain.TransferRepository, accountRepo domain.AccountRepository) *TransferService {
	return &TransferService{
		transferRepo: transferRepo,
		accountRepo:  accountRepo,
	}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *TransferService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// CreateTransferInput holds the input for creating a transfer
type CreateTransferInput struct {
	FromAccountID int32
	ToAccountID   int32
	Value         decimal.Decimal
	Date          time.Time
	Description   *string
}

// CreateTransfer records a transfer. The source account is debited and the
// destination credited when balances are derived.
func (s *TransferService) CreateTransfer(userID int32, input CreateTransferInput) (*domain.Transfer, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccountTransfer
	}
	if !domain.WholeCents(input.Value) {
		return nil, domain.ErrValuePrecision
	}
	if !input.Value.IsPositive() {
		return nil, domain.ErrInvalidValue
	}
	if input.Date.IsZero() {
		return nil, domain.ErrDateRequired
	}
	var description *string
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		if len(d) > domain.MaxDescriptionLength {
			return nil, domain.ErrDescriptionTooLong
		}
		if d != "" {
			description = &d
		}
	}

	if _, err := s.accountRepo.GetByID(userID, input.FromAccountID); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.GetByID(userID, input.ToAccountID); err != nil {
		return nil, err
	}

	transfer, err := s.transferRepo.Create(&domain.Transfer{
		UserID:        userID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Value:         input.Value,
		Date:          domain.DateOnly(input.Date),
		Description:   description,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityCreated(websocket.EntityTypeTransfer, transfer))
	s.notifier.Changed(transferChange(transfer))
	return transfer, nil
}

// GetTransfers returns the user's transfers most recent first
func (s *TransferService) GetTransfers(userID int32) ([]*domain.Transfer, error) {
	return s.transferRepo.ListByUser(userID)
}

// DeleteTransfer removes a transfer
func (s *TransferService) DeleteTransfer(userID int32, id int32) error {
	existing, err := s.transferRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if err := s.transferRepo.Delete(userID, id); err != nil {
		return err
	}

	s.notifier.Entity(userID, websocket.EntityDeleted(websocket.EntityTypeTransfer, map[string]int32{"id": id}))
	s.notifier.Changed(transferChange(existing))
	return nil
}

func transferChange(t *domain.Transfer) cache.Change {
	return cache.Change{
		Mutation:   cache.MutationTransfer,
		UserID:     t.UserID,
		AccountIDs: []int32{t.FromAccountID, t.ToAccountID},
		Scoped:     true,
	}
}
