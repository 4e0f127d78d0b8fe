package handler

import (
	"net/http"
	"strconv"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ForecastHandler serves balance projections and simulation overlays
type ForecastHandler struct {
	forecastService   *service.ForecastService
	simulationService *service.SimulationService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(forecastService *service.ForecastService, simulationService *service.SimulationService) *ForecastHandler {
	return &ForecastHandler{
		forecastService:   forecastService,
		simulationService: simulationService,
	}
}

// ForecastPeriodResponse represents one projected month, in whole currency units
type ForecastPeriodResponse struct {
	Month    string `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	NetFlow  string `json:"netFlow"`
	Balance  string `json:"balance"`
}

// ForecastResponse represents a balance projection
type ForecastResponse struct {
	StartBalance       string                   `json:"startBalance"`
	AverageIncome      string                   `json:"averageIncome"`
	AverageExpenses    string                   `json:"averageExpenses"`
	FinalBalance       string                   `json:"finalBalance"`
	GrowthPercent      *string                  `json:"growthPercent"`
	FirstNegativeMonth *string                  `json:"firstNegativeMonth"`
	Periods            []ForecastPeriodResponse `json:"periods"`
}

// OverlaidPeriodResponse represents one month of a simulation overlay
type OverlaidPeriodResponse struct {
	Month              string  `json:"month"`
	BaseBalance        string  `json:"baseBalance"`
	SimulatedIncome    string  `json:"simulatedIncome"`
	SimulatedExpenses  string  `json:"simulatedExpenses"`
	Income             string  `json:"income"`
	Expenses           string  `json:"expenses"`
	NetFlow            string  `json:"netFlow"`
	Balance            string  `json:"balance"`
	Difference         string  `json:"difference"`
	AppliedSimulations []int32 `json:"appliedSimulations"`
}

// SimulationOverlayResponse represents a forecast with simulations applied
type SimulationOverlayResponse struct {
	SimulationIDs []int32                  `json:"simulationIds"`
	BaseFinal     string                   `json:"baseFinal"`
	OverlaidFinal string                   `json:"overlaidFinal"`
	TotalImpact   string                   `json:"totalImpact"`
	AverageImpact string                   `json:"averageImpact"`
	Periods       []OverlaidPeriodResponse `json:"periods"`
}

// GetForecast handles GET /api/v1/forecasts
// @Summary Project account balances forward
// @Tags forecasts
// @Produce json
// @Param months query int false "Months to project (1-60, default 12)"
// @Success 200 {object} ForecastResponse
// @Failure 400 {object} ProblemDetails
// @Router /forecasts [get]
func (h *ForecastHandler) GetForecast(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	months, ok := parseMonths(c)
	if !ok {
		return NewValidationError(c, "Invalid months", []ValidationError{{Field: "months", Message: "Must be a valid integer"}})
	}

	forecast, err := h.forecastService.ProjectBalances(userID, months)
	if err != nil {
		return NewServiceError(c, err, "project balances")
	}

	log.Debug().Int32("user_id", userID).Int("months", months).Msg("Forecast computed")
	return c.JSON(http.StatusOK, toForecastResponse(forecast))
}

// GetSimulationOverlay handles GET /api/v1/forecasts/simulations
// @Summary Forecast with simulations applied
// @Tags forecasts
// @Produce json
// @Param months query int false "Months to project (1-60, default 12)"
// @Param ids query string false "Comma-separated simulation IDs; defaults to active simulations"
// @Success 200 {object} SimulationOverlayResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /forecasts/simulations [get]
func (h *ForecastHandler) GetSimulationOverlay(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	months, ok := parseMonths(c)
	if !ok {
		return NewValidationError(c, "Invalid months", []ValidationError{{Field: "months", Message: "Must be a valid integer"}})
	}
	ids, err := parseInt32List(c.QueryParam("ids"))
	if err != nil {
		return NewValidationError(c, "Invalid simulation IDs", []ValidationError{{Field: "ids", Message: "Must be a comma-separated list of integers"}})
	}

	overlay, err := h.simulationService.Overlay(userID, months, ids)
	if err != nil {
		return NewServiceError(c, err, "overlay simulations")
	}

	periods := make([]OverlaidPeriodResponse, len(overlay.Periods))
	for i, p := range overlay.Periods {
		applied := p.AppliedSimulations
		if applied == nil {
			applied = []int32{}
		}
		periods[i] = OverlaidPeriodResponse{
			Month:              p.Base.Label(),
			BaseBalance:        wholeUnits(p.Base.Balance),
			SimulatedIncome:    wholeUnits(p.SimulatedIncome),
			SimulatedExpenses:  wholeUnits(p.SimulatedExpenses),
			Income:             wholeUnits(p.OverlaidIncome),
			Expenses:           wholeUnits(p.OverlaidExpenses),
			NetFlow:            wholeUnits(p.OverlaidNetFlow),
			Balance:            wholeUnits(p.OverlaidBalance),
			Difference:         wholeUnits(p.Difference),
			AppliedSimulations: applied,
		}
	}

	simulationIDs := overlay.SimulationIDs
	if simulationIDs == nil {
		simulationIDs = []int32{}
	}

	return c.JSON(http.StatusOK, SimulationOverlayResponse{
		SimulationIDs: simulationIDs,
		BaseFinal:     wholeUnits(overlay.BaseFinal),
		OverlaidFinal: wholeUnits(overlay.OverlaidFinal),
		TotalImpact:   wholeUnits(overlay.TotalImpact),
		AverageImpact: formatMoney(overlay.AverageImpact),
		Periods:       periods,
	})
}

// parseMonths reads the months query param, defaulting when absent
func parseMonths(c echo.Context) (int, bool) {
	raw := c.QueryParam("months")
	if raw == "" {
		return domain.DefaultForecastMonths, true
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return months, true
}

func toForecastResponse(f *domain.Forecast) ForecastResponse {
	resp := ForecastResponse{
		StartBalance:    formatMoney(f.StartBalance),
		AverageIncome:   formatMoney(f.AverageIncome),
		AverageExpenses: formatMoney(f.AverageExpenses),
		FinalBalance:    wholeUnits(f.FinalBalance),
		Periods:         make([]ForecastPeriodResponse, len(f.Periods)),
	}
	if f.GrowthPercent != nil {
		growth := formatMoney(*f.GrowthPercent)
		resp.GrowthPercent = &growth
	}
	if f.HasNegativePeriod() {
		label := f.Periods[f.FirstNegativeIndex].Label()
		resp.FirstNegativeMonth = &label
	}
	for i, p := range f.Periods {
		r := p.Rounded()
		resp.Periods[i] = ForecastPeriodResponse{
			Month:    r.Label(),
			Income:   r.Income.String(),
			Expenses: r.Expenses.String(),
			NetFlow:  r.NetFlow.String(),
			Balance:  r.Balance.String(),
		}
	}
	return resp
}
