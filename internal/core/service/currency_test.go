package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/intbank/portal/internal/core/domain"
)

func TestCurrencyConverter_ToZAR_Identity(t *testing.T) {
	c := NewCurrencyConverter(nil)
	for _, s := range []string{"0", "100", "100.555", "0.001"} {
		a := decimal.RequireFromString(s)
		got, ok := c.ToZAR(domain.CurrencyZAR, a)
		if !ok {
			t.Fatalf("ZAR must be supported")
		}
		if !got.Equal(a) {
			t.Fatalf("ToZAR(ZAR, %s) = %s, want identity", s, got)
		}
	}
}

func TestCurrencyConverter_ToZAR_Rates(t *testing.T) {
	c := NewCurrencyConverter(nil)
	cases := []struct {
		cur    domain.Currency
		amount string
		want   string
	}{
		{domain.CurrencyUSD, "100", "1800.00"},
		{domain.CurrencyEUR, "10", "200.00"},
		{domain.CurrencyGBP, "2.5", "57.50"},
		{domain.CurrencyUSD, "1.234", "22.21"},
		{domain.CurrencyUSD, "0.0025", "0.05"},
	}
	for _, tc := range cases {
		got, ok := c.ToZAR(tc.cur, decimal.RequireFromString(tc.amount))
		if !ok {
			t.Fatalf("%s not supported", tc.cur)
		}
		if got.StringFixed(2) != tc.want {
			t.Errorf("ToZAR(%s, %s) = %s, want %s", tc.cur, tc.amount, got.StringFixed(2), tc.want)
		}
	}
}

func TestCurrencyConverter_ToZAR_Unknown(t *testing.T) {
	c := NewCurrencyConverter(nil)
	if _, ok := c.ToZAR("XXX", decimal.NewFromInt(5)); ok {
		t.Fatalf("expected unknown currency to be rejected")
	}
	if c.Supports("XXX") {
		t.Fatalf("Supports(XXX) must be false")
	}
}

func TestCurrencyConverter_CustomRatesKeepRandAtOne(t *testing.T) {
	c := NewCurrencyConverter(map[domain.Currency]decimal.Decimal{
		"JPY":              decimal.RequireFromString("0.12"),
		domain.CurrencyZAR: decimal.NewFromInt(3),
	})
	rate, ok := c.Rate(domain.CurrencyZAR)
	if !ok || !rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("ZAR rate must be 1, got %s", rate)
	}
	if c.Supports(domain.CurrencyUSD) {
		t.Fatalf("custom table must replace the defaults")
	}
	got, ok := c.ToZAR("JPY", decimal.NewFromInt(1000))
	if !ok || got.StringFixed(2) != "120.00" {
		t.Fatalf("unexpected JPY conversion: %s %v", got, ok)
	}
}

func TestCurrencyConverter_CurrenciesSorted(t *testing.T) {
	got := NewCurrencyConverter(nil).Currencies()
	want := []domain.Currency{"EUR", "GBP", "USD", "ZAR"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
