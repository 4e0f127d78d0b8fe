package service

import (
	"strings"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// AccountService handles account-related business logic
type AccountService struct {
	accountRepo domain.AccountRepository
	notifier    *ChangeNotifier
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *AccountService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	Bank           string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account
func (s *AccountService) CreateAccount(userID int32, input CreateAccountInput) (*domain.Account, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	bank := strings.TrimSpace(input.Bank)
	if bank == "" {
		return nil, domain.ErrBankRequired
	}
	if len(bank) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidAccountType
	}
	if !domain.WholeCents(input.InitialBalance) {
		return nil, domain.ErrBalancePrecision
	}

	account, err := s.accountRepo.Create(&domain.Account{
		UserID:         userID,
		Name:           name,
		Bank:           bank,
		Type:           input.Type,
		InitialBalance: input.InitialBalance,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityCreated(websocket.EntityTypeAccount, account))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationAccount, UserID: userID, AccountIDs: []int32{account.ID}, Scoped: true})
	return account, nil
}

// GetAccounts retrieves all accounts of the user
func (s *AccountService) GetAccounts(userID int32) ([]*domain.Account, error) {
	return s.accountRepo.GetAllByUser(userID)
}

// GetAccountByID retrieves an account owned by the user
func (s *AccountService) GetAccountByID(userID int32, id int32) (*domain.Account, error) {
	return s.accountRepo.GetByID(userID, id)
}

// UpdateAccount applies a partial update
func (s *AccountService) UpdateAccount(userID int32, id int32, update domain.AccountUpdate) (*domain.Account, error) {
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if update.Bank != nil {
		bank := strings.TrimSpace(*update.Bank)
		if bank == "" {
			return nil, domain.ErrBankRequired
		}
		update.Bank = &bank
	}
	if update.Type != nil && !update.Type.Valid() {
		return nil, domain.ErrInvalidAccountType
	}
	if update.InitialBalance != nil && !domain.WholeCents(*update.InitialBalance) {
		return nil, domain.ErrBalancePrecision
	}

	account, err := s.accountRepo.Update(userID, id, update)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityUpdated(websocket.EntityTypeAccount, account))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationAccount, UserID: userID, AccountIDs: []int32{id}, Scoped: true})
	return account, nil
}

// DeleteAccount removes an account. Its transactions and transfers go with it,
// so every derived value of the user is invalidated.
func (s *AccountService) DeleteAccount(userID int32, id int32) error {
	if err := s.accountRepo.Delete(userID, id); err != nil {
		return err
	}

	s.notifier.Entity(userID, websocket.EntityDeleted(websocket.EntityTypeAccount, map[string]int32{"id": id}))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationAccount, UserID: userID})
	s.notifier.Changed(cache.Change{Mutation: cache.MutationTransaction, UserID: userID})
	return nil
}
