package handler

import (
	"net/http"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// UpdateCategoryRequest represents the update category request body
type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(userID, service.CreateCategoryInput{
		Name:  req.Name,
		Type:  domain.TransactionType(req.Type),
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		return NewServiceError(c, err, "create category")
	}

	log.Info().Int32("user_id", userID).Int32("category_id", category.ID).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	categories, err := h.categoryService.GetCategories(userID)
	if err != nil {
		return NewServiceError(c, err, "get categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateCategory(userID, id, domain.CategoryUpdate{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		return NewServiceError(c, err, "update category")
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(userID, id); err != nil {
		return NewServiceError(c, err, "delete category")
	}

	log.Info().Int32("user_id", userID).Int32("category_id", id).Msg("Category deleted")
	return c.NoContent(http.StatusNoContent)
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:    category.ID,
		Name:  category.Name,
		Type:  string(category.Type),
		Color: category.Color,
		Icon:  category.Icon,
	}
}
