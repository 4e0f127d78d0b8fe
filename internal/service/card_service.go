package service

import (
	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// CardService handles credit card business logic
type CardService struct {
	cardRepo domain.CardRepository
	notifier *ChangeNotifier
}

// NewCardService creates a new CardService
func NewCardService(cardRepo domain.CardRepository) *CardService {
	return &CardService{cardRepo: cardRepo}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *CardService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// CreateCardInput holds the input for creating a card
type CreateCardInput struct {
	Name        string
	Brand       domain.CardBrand
	CreditLimit decimal.Decimal
	CloseDay    int
	DueDay      int
}

// CreateCard creates a new card
func (s *CardService) CreateCard(userID int32, input CreateCardInput) (*domain.Card, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	card := &domain.Card{
		UserID:      userID,
		Name:        name,
		Brand:       input.Brand,
		CreditLimit: input.CreditLimit,
		CloseDay:    input.CloseDay,
		DueDay:      input.DueDay,
	}
	if err := validateCard(card); err != nil {
		return nil, err
	}

	created, err := s.cardRepo.Create(card)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityCreated(websocket.EntityTypeCard, created))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationCard, UserID: userID, CardIDs: []int32{created.ID}, Scoped: true})
	return created, nil
}

// GetCards retrieves all cards of the user
func (s *CardService) GetCards(userID int32) ([]*domain.Card, error) {
	return s.cardRepo.GetAllByUser(userID)
}

// GetCardByID retrieves a card owned by the user
func (s *CardService) GetCardByID(userID int32, id int32) (*domain.Card, error) {
	return s.cardRepo.GetByID(userID, id)
}

// UpdateCard applies a partial update
func (s *CardService) UpdateCard(userID int32, id int32, update domain.CardUpdate) (*domain.Card, error) {
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if update.Brand != nil && !update.Brand.Valid() {
		return nil, domain.ErrInvalidCardBrand
	}
	if update.CreditLimit != nil {
		if !domain.WholeCents(*update.CreditLimit) {
			return nil, domain.ErrLimitPrecision
		}
		if update.CreditLimit.IsNegative() {
			return nil, domain.ErrNegativeLimit
		}
	}
	if update.CloseDay != nil && !validDay(*update.CloseDay) {
		return nil, domain.ErrInvalidDay
	}
	if update.DueDay != nil && !validDay(*update.DueDay) {
		return nil, domain.ErrInvalidDay
	}

	card, err := s.cardRepo.Update(userID, id, update)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityUpdated(websocket.EntityTypeCard, card))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationCard, UserID: userID, CardIDs: []int32{id}, Scoped: true})
	return card, nil
}

// DeleteCard removes a card. Linked transactions remain in the ledger.
func (s *CardService) DeleteCard(userID int32, id int32) error {
	if err := s.cardRepo.Delete(userID, id); err != nil {
		return err
	}

	s.notifier.Entity(userID, websocket.EntityDeleted(websocket.EntityTypeCard, map[string]int32{"id": id}))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationCard, UserID: userID, CardIDs: []int32{id}, Scoped: true})
	return nil
}

func validateCard(card *domain.Card) error {
	if !card.Brand.Valid() {
		return domain.ErrInvalidCardBrand
	}
	if !domain.WholeCents(card.CreditLimit) {
		return domain.ErrLimitPrecision
	}
	if card.CreditLimit.IsNegative() {
		return domain.ErrNegativeLimit
	}
	if !validDay(card.CloseDay) || !validDay(card.DueDay) {
		return domain.ErrInvalidDay
	}
	return nil
}

func validDay(day int) bool {
	return day >= 1 && day <= 31
}
