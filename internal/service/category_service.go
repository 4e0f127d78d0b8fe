package service

import (
	"regexp"
	"strings"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	notifier     *ChangeNotifier
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *CategoryService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name  string
	Type  domain.TransactionType
	Color string
	Icon  string
}

// CreateCategory creates a new category, filling in the default color and icon
func (s *CategoryService) CreateCategory(userID int32, input CreateCategoryInput) (*domain.Category, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidEntryType
	}

	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = domain.DefaultCategoryColor
	} else if !hexColorPattern.MatchString(color) {
		return nil, domain.ErrInvalidColor
	}
	icon := strings.TrimSpace(input.Icon)
	if icon == "" {
		icon = domain.DefaultCategoryIcon
	}

	category, err := s.categoryRepo.Create(&domain.Category{
		UserID: userID,
		Name:   name,
		Type:   input.Type,
		Color:  color,
		Icon:   icon,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityCreated(websocket.EntityTypeCategory, category))
	return category, nil
}

// GetCategories retrieves all categories of the user
func (s *CategoryService) GetCategories(userID int32) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllByUser(userID)
}

// UpdateCategory applies a partial update. The kind of a category is fixed.
func (s *CategoryService) UpdateCategory(userID int32, id int32, update domain.CategoryUpdate) (*domain.Category, error) {
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if update.Color != nil && !hexColorPattern.MatchString(*update.Color) {
		return nil, domain.ErrInvalidColor
	}

	category, err := s.categoryRepo.Update(userID, id, update)
	if err != nil {
		return nil, err
	}

	s.notifier.Entity(userID, websocket.EntityUpdated(websocket.EntityTypeCategory, category))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationCategory, UserID: userID})
	return category, nil
}

// DeleteCategory removes a category
func (s *CategoryService) DeleteCategory(userID int32, id int32) error {
	if err := s.categoryRepo.Delete(userID, id); err != nil {
		return err
	}

	s.notifier.Entity(userID, websocket.EntityDeleted(websocket.EntityTypeCategory, map[string]int32{"id": id}))
	s.notifier.Changed(cache.Change{Mutation: cache.MutationCategory, UserID: userID})
	return nil
}
