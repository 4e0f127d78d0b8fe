package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// CategoryTotalResponse represents expense spending of one category
type CategoryTotalResponse struct {
	CategoryID   int32  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Color        string `json:"color"`
	Total        string `json:"total"`
}

// DashboardSummaryResponse represents the dashboard summary API response
type DashboardSummaryResponse struct {
	Year                   int                     `json:"year"`
	Month                  int                     `json:"month"`
	TotalIncome            string                  `json:"totalIncome"`
	TotalExpenses          string                  `json:"totalExpenses"`
	TotalBalance           string                  `json:"totalBalance"`
	MonthlySavings         string                  `json:"monthlySavings"`
	TransactionsByCategory []CategoryTotalResponse `json:"transactionsByCategory"`
}

// GetSummary handles GET /api/v1/dashboard/summary
// Accepts optional year and month query params for historical navigation
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	yearStr, monthStr := c.QueryParam("year"), c.QueryParam("month")

	var summary *domain.DashboardSummary
	var err error
	if yearStr == "" && monthStr == "" {
		summary, err = h.dashboardService.GetSummary(userID)
	} else {
		// Parse optional year/month params (default to current)
		now := time.Now()
		year := now.Year()
		month := int(now.Month())

		if yearStr != "" {
			parsedYear, perr := strconv.Atoi(yearStr)
			if perr != nil {
				return NewValidationError(c, "Invalid year format", []ValidationError{{Field: "year", Message: "Must be a valid integer"}})
			}
			if parsedYear < 2000 || parsedYear > 2100 {
				return NewValidationError(c, "Year must be between 2000 and 2100", []ValidationError{{Field: "year", Message: "Must be between 2000 and 2100"}})
			}
			year = parsedYear
		}
		if monthStr != "" {
			parsedMonth, perr := strconv.Atoi(monthStr)
			if perr != nil {
				return NewValidationError(c, "Invalid month format", []ValidationError{{Field: "month", Message: "Must be a valid integer"}})
			}
			if parsedMonth < 1 || parsedMonth > 12 {
				return NewValidationError(c, "Month must be between 1 and 12", []ValidationError{{Field: "month", Message: "Must be between 1 and 12"}})
			}
			month = parsedMonth
		}
		summary, err = h.dashboardService.GetSummaryForMonth(userID, year, month)
	}
	if err != nil {
		return NewServiceError(c, err, "get dashboard summary")
	}

	log.Debug().Int32("user_id", userID).Int("year", summary.Year).Int("month", summary.Month).Msg("Dashboard summary computed")

	return c.JSON(http.StatusOK, DashboardSummaryResponse{
		Year:                   summary.Year,
		Month:                  summary.Month,
		TotalIncome:            formatMoney(summary.TotalIncome),
		TotalExpenses:          formatMoney(summary.TotalExpenses),
		TotalBalance:           formatMoney(summary.TotalBalance),
		MonthlySavings:         formatMoney(summary.MonthlySavings),
		TransactionsByCategory: toCategoryTotals(summary.TransactionsByCategory),
	})
}

func toCategoryTotals(totals []*domain.CategoryTotal) []CategoryTotalResponse {
	out := make([]CategoryTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = CategoryTotalResponse{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Color:        t.Color,
			Total:        formatMoney(t.Total),
		}
	}
	return out
}
