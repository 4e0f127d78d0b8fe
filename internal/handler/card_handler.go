package handler

import (
	"net/http"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CardHandler handles credit card HTTP requests
type CardHandler struct {
	cardService        *service.CardService
	calculationService *service.CalculationService
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(cardService *service.CardService, calculationService *service.CalculationService) *CardHandler {
	return &CardHandler{
		cardService:        cardService,
		calculationService: calculationService,
	}
}

// CreateCardRequest represents the create card request body
type CreateCardRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	CreditLimit string `json:"creditLimit"`
	CloseDay    int    `json:"closeDay"`
	DueDay      int    `json:"dueDay"`
}

// UpdateCardRequest represents the update card request body
type UpdateCardRequest struct {
	Name        *string `json:"name"`
	Brand       *string `json:"brand"`
	CreditLimit *string `json:"creditLimit"`
	CloseDay    *int    `json:"closeDay"`
	DueDay      *int    `json:"dueDay"`
}

// CardResponse represents a card with its derived usage
type CardResponse struct {
	ID              int32  `json:"id"`
	Name            string `json:"name"`
	Brand           string `json:"brand"`
	CreditLimit     string `json:"creditLimit"`
	CloseDay        int    `json:"closeDay"`
	DueDay          int    `json:"dueDay"`
	CurrentUsage    string `json:"currentUsage"`
	AvailableCredit string `json:"availableCredit"`
	Utilization     string `json:"utilization"`
	Level           string `json:"level"`
	NextCloseDate   string `json:"nextCloseDate"`
	NextDueDate     string `json:"nextDueDate"`
	CreatedAt       string `json:"createdAt"`
}

// CreateCard handles POST /api/v1/cards
func (h *CardHandler) CreateCard(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	limit, err := parseDecimal(req.CreditLimit)
	if err != nil {
		return NewValidationError(c, "Invalid credit limit", []ValidationError{
			{Field: "creditLimit", Message: "Must be a valid decimal number"},
		})
	}

	card, err := h.cardService.CreateCard(userID, service.CreateCardInput{
		Name:        req.Name,
		Brand:       domain.CardBrand(req.Brand),
		CreditLimit: limit,
		CloseDay:    req.CloseDay,
		DueDay:      req.DueDay,
	})
	if err != nil {
		return NewServiceError(c, err, "create card")
	}

	log.Info().Int32("user_id", userID).Int32("card_id", card.ID).Msg("Card created")
	return h.respondWithUsage(c, http.StatusCreated, userID, card)
}

// GetCards handles GET /api/v1/cards
func (h *CardHandler) GetCards(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	cards, err := h.cardService.GetCards(userID)
	if err != nil {
		return NewServiceError(c, err, "get cards")
	}
	usages, err := h.calculationService.CalculateCardUsages(userID)
	if err != nil {
		return NewServiceError(c, err, "calculate card usage")
	}

	response := make([]CardResponse, len(cards))
	for i, card := range cards {
		response[i] = toCardResponse(card, usages[card.ID])
	}
	return c.JSON(http.StatusOK, response)
}

// GetCard handles GET /api/v1/cards/:id
func (h *CardHandler) GetCard(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid card ID", nil)
	}

	card, err := h.cardService.GetCardByID(userID, id)
	if err != nil {
		return NewServiceError(c, err, "get card")
	}
	return h.respondWithUsage(c, http.StatusOK, userID, card)
}

// UpdateCard handles PUT /api/v1/cards/:id
func (h *CardHandler) UpdateCard(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid card ID", nil)
	}

	var req UpdateCardRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	update := domain.CardUpdate{Name: req.Name, CloseDay: req.CloseDay, DueDay: req.DueDay}
	if req.Brand != nil {
		brand := domain.CardBrand(*req.Brand)
		update.Brand = &brand
	}
	if req.CreditLimit != nil {
		limit, err := parseDecimal(*req.CreditLimit)
		if err != nil {
			return NewValidationError(c, "Invalid credit limit", []ValidationError{
				{Field: "creditLimit", Message: "Must be a valid decimal number"},
			})
		}
		update.CreditLimit = &limit
	}

	card, err := h.cardService.UpdateCard(userID, id, update)
	if err != nil {
		return NewServiceError(c, err, "update card")
	}
	return h.respondWithUsage(c, http.StatusOK, userID, card)
}

// DeleteCard handles DELETE /api/v1/cards/:id
func (h *CardHandler) DeleteCard(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid card ID", nil)
	}

	if err := h.cardService.DeleteCard(userID, id); err != nil {
		return NewServiceError(c, err, "delete card")
	}

	log.Info().Int32("user_id", userID).Int32("card_id", id).Msg("Card deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *CardHandler) respondWithUsage(c echo.Context, status int, userID int32, card *domain.Card) error {
	usage, err := h.calculationService.GetCardUsage(userID, card.ID)
	if err != nil {
		return NewServiceError(c, err, "calculate card usage")
	}
	return c.JSON(status, toCardResponse(card, usage))
}

func toCardResponse(card *domain.Card, usage *domain.CardUsage) CardResponse {
	resp := CardResponse{
		ID:              card.ID,
		Name:            card.Name,
		Brand:           string(card.Brand),
		CreditLimit:     formatMoney(card.CreditLimit),
		CloseDay:        card.CloseDay,
		DueDay:          card.DueDay,
		CurrentUsage:    formatMoney(decimal.Zero),
		AvailableCredit: formatMoney(card.CreditLimit),
		Utilization:     formatMoney(decimal.Zero),
		Level:           string(domain.UsageLevelNormal),
		CreatedAt:       card.CreatedAt.Format(time.RFC3339),
	}
	if usage != nil {
		resp.CurrentUsage = formatMoney(usage.Usage)
		resp.AvailableCredit = formatMoney(usage.AvailableCredit)
		resp.Utilization = formatMoney(usage.UtilizationPercent)
		resp.Level = string(usage.Level)
		resp.NextCloseDate = formatDate(usage.NextCloseDate)
		resp.NextDueDate = formatDate(usage.NextDueDate)
	}
	return resp
}
