package service

import (
	"strings"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	categoryRepo    domain.CategoryRepository
	cardRepo        domain.CardRepository
	notifier        *ChangeNotifier
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	accountRepo domain.AccountRepository,
	categoryRepo domain.CategoryRepository,
	cardRepo domain.CardRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categoryRepo:    categoryRepo,
		cardRepo:        cardRepo,
	}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *TransactionService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// TransactionInput holds the fields of a transaction to create or replace
type TransactionInput struct {
	AccountID     int32
	CategoryID    int32
	Type          domain.TransactionType
	Value         decimal.Decimal
	Date          time.Time
	Description   string
	PaymentMethod domain.PaymentMethod
	IsFixed       bool
	IsParceled    bool
	TotalParcels  int32
	ParcelNumber  int32
	CardID        *int32
}

// CreateTransaction validates and stores a transaction together with its card link
func (s *TransactionService) CreateTransaction(userID int32, input TransactionInput) (*domain.Transaction, error) {
	transaction, err := s.build(userID, input)
	if err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityCreated(websocket.EntityTypeTransaction, created))
	s.notifier.Changed(transactionChange(userID, created))
	return created, nil
}

// GetTransactions returns the user's transactions most recent first.
// limit <= 0 uses the default; limits above the maximum are capped.
func (s *TransactionService) GetTransactions(userID int32, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = domain.DefaultTransactionLimit
	}
	if limit > domain.MaxTransactionLimit {
		limit = domain.MaxTransactionLimit
	}
	return s.transactionRepo.ListByUser(userID, limit)
}

// GetTransactionByID retrieves a transaction owned by the user
func (s *TransactionService) GetTransactionByID(userID int32, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// UpdateTransaction replaces a transaction. Both the old and new account,
// card and month are invalidated.
func (s *TransactionService) UpdateTransaction(userID int32, id int32, input TransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	before := *existing

	transaction, err := s.build(userID, input)
	if err != nil {
		return nil, err
	}
	transaction.ID = id
	transaction.CreatedAt = existing.CreatedAt

	updated, err := s.transactionRepo.Update(transaction)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityUpdated(websocket.EntityTypeTransaction, updated))
	s.notifier.Changed(transactionChange(userID, &before, updated))
	return updated, nil
}

// DeleteTransaction removes a transaction and its card link
func (s *TransactionService) DeleteTransaction(userID int32, id int32) error {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(userID, id); err != nil {
		return err
	}

	s.notifier.Entity(userID, websocket.EntityDeleted(websocket.EntityTypeTransaction, map[string]int32{"id": id}))
	s.notifier.Changed(transactionChange(userID, existing))
	return nil
}

func (s *TransactionService) build(userID int32, input TransactionInput) (*domain.Transaction, error) {
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidEntryType
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
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	if !input.PaymentMethod.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	totalParcels, parcelNumber := int32(1), int32(1)
	if input.IsParceled {
		totalParcels, parcelNumber = input.TotalParcels, input.ParcelNumber
		if parcelNumber == 0 {
			parcelNumber = 1
		}
		if totalParcels < 1 || parcelNumber < 1 || parcelNumber > totalParcels {
			return nil, domain.ErrInvalidParcels
		}
	}

	if input.CardID != nil && input.PaymentMethod != domain.PaymentMethodCreditCard {
		return nil, domain.ErrCardRequiresCredit
	}

	if _, err := s.accountRepo.GetByID(userID, input.AccountID); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.GetByID(userID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.Type != input.Type {
		return nil, domain.ErrCategoryTypeMismatch
	}
	if input.CardID != nil {
		if _, err := s.cardRepo.GetByID(userID, *input.CardID); err != nil {
			return nil, err
		}
	}

	return &domain.Transaction{
		UserID:        userID,
		AccountID:     input.AccountID,
		CategoryID:    input.CategoryID,
		Type:          input.Type,
		Value:         input.Value,
		Date:          domain.DateOnly(input.Date),
		Description:   description,
		PaymentMethod: input.PaymentMethod,
		IsFixed:       input.IsFixed,
		IsParceled:    input.IsParceled,
		TotalParcels:  totalParcels,
		ParcelNumber:  parcelNumber,
		CardID:        input.CardID,
	}, nil
}
