package handler

import (
	"net/http"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ReportHandler serves filtered income/expense reports
type ReportHandler struct {
	summaryService *service.SummaryService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(summaryService *service.SummaryService) *ReportHandler {
	return &ReportHandler{summaryService: summaryService}
}

// RangeSummaryResponse represents a report over a date range
type RangeSummaryResponse struct {
	StartDate        string                  `json:"startDate"`
	EndDate          string                  `json:"endDate"`
	TotalIncome      string                  `json:"totalIncome"`
	TotalExpenses    string                  `json:"totalExpenses"`
	Balance          string                  `json:"balance"`
	TransactionCount int                     `json:"transactionCount"`
	ByCategory       []CategoryTotalResponse `json:"byCategory"`
}

// MonthTrendResponse represents one month of a trend report
type MonthTrendResponse struct {
	Month    string `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

// TrendResponse represents a monthly trend report
type TrendResponse struct {
	StartDate string               `json:"startDate"`
	EndDate   string               `json:"endDate"`
	Months    []MonthTrendResponse `json:"months"`
}

// GetSummary handles GET /api/v1/reports/summary
// @Summary Income and expense report for a period
// @Tags reports
// @Produce json
// @Param period query string false "thisMonth, lastMonth, thisYear or last3Months"
// @Param startDate query string false "Custom range start (YYYY-MM-DD)"
// @Param endDate query string false "Custom range end (YYYY-MM-DD)"
// @Param accountId query int false "Restrict to one account"
// @Param categoryId query int false "Restrict to one category"
// @Success 200 {object} RangeSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/summary [get]
func (h *ReportHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filter, err := h.parseFilter(c)
	if filter == nil {
		return err
	}

	summary, serr := h.summaryService.ComputeRangeSummary(userID, *filter)
	if serr != nil {
		return NewServiceError(c, serr, "compute report")
	}

	return c.JSON(http.StatusOK, RangeSummaryResponse{
		StartDate:        formatDate(filter.Range.Start),
		EndDate:          formatDate(filter.Range.End),
		TotalIncome:      formatMoney(summary.TotalIncome),
		TotalExpenses:    formatMoney(summary.TotalExpenses),
		Balance:          formatMoney(summary.Balance),
		TransactionCount: summary.TransactionCount,
		ByCategory:       toCategoryTotals(summary.ByCategory),
	})
}

// GetTrend handles GET /api/v1/reports/trend
func (h *ReportHandler) GetTrend(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filter, err := h.parseFilter(c)
	if filter == nil {
		return err
	}

	trend, serr := h.summaryService.ComputeMonthlyTrend(userID, *filter)
	if serr != nil {
		return NewServiceError(c, serr, "compute trend")
	}

	months := make([]MonthTrendResponse, len(trend))
	for i, m := range trend {
		months[i] = MonthTrendResponse{
			Month:    domain.ForecastPeriod{Year: m.Year, Month: m.Month}.Label(),
			Income:   formatMoney(m.Income),
			Expenses: formatMoney(m.Expenses),
			Net:      formatMoney(m.Net),
		}
	}

	return c.JSON(http.StatusOK, TrendResponse{
		StartDate: formatDate(filter.Range.Start),
		EndDate:   formatDate(filter.Range.End),
		Months:    months,
	})
}

// parseFilter resolves the report window and filters from query params.
// An explicit startDate/endDate pair wins over a period preset; with neither
// the current month is used. A nil filter means the problem response has
// already been written.
func (h *ReportHandler) parseFilter(c echo.Context) (*domain.ReportFilter, error) {
	var filter domain.ReportFilter

	start, err := parseOptionalDate(ptr(c.QueryParam("startDate")))
	if err != nil {
		return nil, invalidDateError(c, "startDate")
	}
	end, err := parseOptionalDate(ptr(c.QueryParam("endDate")))
	if err != nil {
		return nil, invalidDateError(c, "endDate")
	}

	switch {
	case start != nil || end != nil:
		if start == nil || end == nil {
			return nil, NewValidationError(c, "Both startDate and endDate are required for a custom range", []ValidationError{
				{Field: "startDate", Message: "Provide both startDate and endDate"},
			})
		}
		filter.Range = domain.DateRange{Start: *start, End: *end}
	default:
		period := domain.ReportPeriod(c.QueryParam("period"))
		if period == "" {
			period = domain.ReportPeriodThisMonth
		}
		r, rerr := h.summaryService.ReportRange(period)
		if rerr != nil {
			return nil, NewServiceError(c, rerr, "resolve period")
		}
		filter.Range = r
	}

	if filter.AccountID, err = parseOptionalInt32Query(c, "accountId"); err != nil {
		return nil, NewValidationError(c, "Invalid account ID", []ValidationError{{Field: "accountId", Message: "Must be a valid integer"}})
	}
	if filter.CategoryID, err = parseOptionalInt32Query(c, "categoryId"); err != nil {
		return nil, NewValidationError(c, "Invalid category ID", []ValidationError{{Field: "categoryId", Message: "Must be a valid integer"}})
	}
	return &filter, nil
}

func ptr(s string) *string {
	return &s
}
