package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountType_Valid(t *testing.T) {
	tests := []struct {
		value    AccountType
		expected bool
	}{
		{AccountTypeChecking, true},
		{AccountTypeSavings, true},
		{AccountType("investment"), false},
	}

	for _, tt := range tests {
		if got := tt.value.Valid(); got != tt.expected {
			t.Errorf("AccountType(%q).Valid() = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

func TestAccountTotals_Net(t *testing.T) {
	totals := &AccountTotals{
		SumIncome:    decimal.NewFromInt(500),
		SumExpenses:  decimal.RequireFromString("200.50"),
		TransfersIn:  decimal.NewFromInt(100),
		TransfersOut: decimal.NewFromInt(50),
	}

	want := decimal.RequireFromString("349.50")
	if !totals.Net().Equal(want) {
		t.Errorf("Net() = %s, want %s", totals.Net(), want)
	}
}

func TestCardBrand_Valid(t *testing.T) {
	for _, b := range []CardBrand{CardBrandVisa, CardBrandMastercard, CardBrandElo, CardBrandAmex, CardBrandHipercard, CardBrandOther} {
		if !b.Valid() {
			t.Errorf("CardBrand(%q).Valid() = false, want true", b)
		}
	}
	if CardBrand("diners").Valid() {
		t.Error("CardBrand(\"diners\").Valid() = true, want false")
	}
}
