package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// parseIDParam reads a positive int32 path parameter
func parseIDParam(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseInt32List(s string) ([]int32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, err
		}
		out = append(out, int32(id))
	}
	return out, nil
}

func parseOptionalInt32Query(c echo.Context, name string) (*int32, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	id := int32(v)
	return &id, nil
}

// wholeUnits renders a projected value rounded to whole currency units
func wholeUnits(d decimal.Decimal) string {
	return d.Round(0).String()
}
