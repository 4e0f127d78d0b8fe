package handler

import (
	"net/http"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SimulationHandler handles what-if simulation HTTP requests
type SimulationHandler struct {
	simulationService *service.SimulationService
}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler(simulationService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulationService: simulationService}
}

// CreateSimulationRequest represents the create simulation request body
type CreateSimulationRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// UpdateSimulationRequest represents the update simulation request body.
// Sending clearEndDate removes the end date and makes the simulation open ended.
type UpdateSimulationRequest struct {
	Name         *string `json:"name"`
	Type         *string `json:"type"`
	Value        *string `json:"value"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	ClearEndDate bool    `json:"clearEndDate"`
	IsActive     *bool   `json:"isActive"`
}

// SimulationResponse represents a simulation in API responses
type SimulationResponse struct {
	ID        int32   `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate,omitempty"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
}

// CreateSimulation handles POST /api/v1/simulations
// @Summary Create a simulation
// @Tags simulations
// @Accept json
// @Produce json
// @Param body body CreateSimulationRequest true "Simulation"
// @Success 201 {object} SimulationResponse
// @Failure 400 {object} ProblemDetails
// @Router /simulations [post]
func (h *SimulationHandler) CreateSimulation(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateSimulationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	value, err := parseDecimal(req.Value)
	if err != nil {
		return NewValidationError(c, "Invalid value", []ValidationError{
			{Field: "value", Message: "Must be a valid decimal number"},
		})
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return invalidDateError(c, "startDate")
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return invalidDateError(c, "endDate")
	}

	input := service.CreateSimulationInput{
		Name:     req.Name,
		Type:     domain.TransactionType(req.Type),
		Value:    value,
		EndDate:  end,
		IsActive: req.IsActive,
	}
	if start != nil {
		input.StartDate = *start
	}

	simulation, err := h.simulationService.CreateSimulation(userID, input)
	if err != nil {
		return NewServiceError(c, err, "create simulation")
	}

	log.Info().Int32("user_id", userID).Int32("simulation_id", simulation.ID).Msg("Simulation created")
	return c.JSON(http.StatusCreated, toSimulationResponse(simulation))
}

// GetSimulations handles GET /api/v1/simulations
// @Summary List simulations
// @Tags simulations
// @Produce json
// @Success 200 {array} SimulationResponse
// @Router /simulations [get]
func (h *SimulationHandler) GetSimulations(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	simulations, err := h.simulationService.GetSimulations(userID)
	if err != nil {
		return NewServiceError(c, err, "get simulations")
	}

	response := make([]SimulationResponse, len(simulations))
	for i, simulation := range simulations {
		response[i] = toSimulationResponse(simulation)
	}
	return c.JSON(http.StatusOK, response)
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid simulation ID", nil)
	}

	simulation, err := h.simulationService.GetSimulationByID(userID, id)
	if err != nil {
		return NewServiceError(c, err, "get simulation")
	}
	return c.JSON(http.StatusOK, toSimulationResponse(simulation))
}

// UpdateSimulation handles PUT /api/v1/simulations/:id
func (h *SimulationHandler) UpdateSimulation(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid simulation ID", nil)
	}

	var req UpdateSimulationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	update := domain.SimulationUpdate{
		Name:     req.Name,
		ClearEnd: req.ClearEndDate,
		IsActive: req.IsActive,
	}
	if req.Type != nil {
		t := domain.TransactionType(*req.Type)
		update.Type = &t
	}
	if req.Value != nil {
		value, err := parseDecimal(*req.Value)
		if err != nil {
			return NewValidationError(c, "Invalid value", []ValidationError{
				{Field: "value", Message: "Must be a valid decimal number"},
			})
		}
		update.Value = &value
	}
	var err error
	if update.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return invalidDateError(c, "startDate")
	}
	if update.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		return invalidDateError(c, "endDate")
	}

	simulation, err := h.simulationService.UpdateSimulation(userID, id, update)
	if err != nil {
		return NewServiceError(c, err, "update simulation")
	}
	return c.JSON(http.StatusOK, toSimulationResponse(simulation))
}

// ToggleSimulation handles PATCH /api/v1/simulations/:id/toggle
// @Summary Flip a simulation between active and inactive
// @Tags simulations
// @Produce json
// @Param id path int true "Simulation ID"
// @Success 200 {object} SimulationResponse
// @Failure 404 {object} ProblemDetails
// @Router /simulations/{id}/toggle [patch]
func (h *SimulationHandler) ToggleSimulation(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid simulation ID", nil)
	}

	simulation, err := h.simulationService.ToggleSimulation(userID, id)
	if err != nil {
		return NewServiceError(c, err, "toggle simulation")
	}

	log.Info().Int32("user_id", userID).Int32("simulation_id", id).Bool("active", simulation.IsActive).Msg("Simulation toggled")
	return c.JSON(http.StatusOK, toSimulationResponse(simulation))
}

// DeleteSimulation handles DELETE /api/v1/simulations/:id
func (h *SimulationHandler) DeleteSimulation(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid simulation ID", nil)
	}

	if err := h.simulationService.DeleteSimulation(userID, id); err != nil {
		return NewServiceError(c, err, "delete simulation")
	}
	return c.NoContent(http.StatusNoContent)
}

func invalidDateError(c echo.Context, field string) error {
	return NewValidationError(c, "Invalid date", []ValidationError{
		{Field: field, Message: "Date must be in YYYY-MM-DD format"},
	})
}

func toSimulationResponse(s *domain.Simulation) SimulationResponse {
	return SimulationResponse{
		ID:        s.ID,
		Name:      s.Name,
		Type:      string(s.Type),
		Value:     formatMoney(s.Value),
		StartDate: formatDate(s.StartDate),
		EndDate:   formatOptionalDate(s.EndDate),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
