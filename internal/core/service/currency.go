package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/intbank/portal/internal/core/domain"
)

// DefaultRates is the static rand exchange table. It is an approximation
// configured with the portal, not a live feed.
var DefaultRates = map[domain.Currency]decimal.Decimal{
	domain.CurrencyUSD: decimal.NewFromInt(18),
	domain.CurrencyEUR: decimal.NewFromInt(20),
	domain.CurrencyGBP: decimal.NewFromInt(23),
	domain.CurrencyZAR: decimal.NewFromInt(1),
}

// CurrencyConverter converts foreign amounts to rand.
type CurrencyConverter struct {
	rates map[domain.Currency]decimal.Decimal
}

// NewCurrencyConverter copies rates; a nil or empty table selects DefaultRates.
func NewCurrencyConverter(rates map[domain.Currency]decimal.Decimal) *CurrencyConverter {
	if len(rates) == 0 {
		rates = DefaultRates
	}
	c := &CurrencyConverter{rates: make(map[domain.Currency]decimal.Decimal, len(rates)+1)}
	for cur, rate := range rates {
		c.rates[cur] = rate
	}
	c.rates[domain.CurrencyZAR] = decimal.NewFromInt(1)
	return c
}

// ToZAR returns amount in rand rounded to two decimal places, or false for a
// currency missing from the table. Rand amounts are returned unchanged.
func (c *CurrencyConverter) ToZAR(cur domain.Currency, amount decimal.Decimal) (decimal.Decimal, bool) {
	if cur == domain.CurrencyZAR {
		return amount, true
	}
	rate, ok := c.rates[cur]
	if !ok {
		return decimal.Decimal{}, false
	}
	return amount.Mul(rate).Round(2), true
}

func (c *CurrencyConverter) Supports(cur domain.Currency) bool {
	_, ok := c.rates[cur]
	return ok
}

// Currencies lists the supported codes in alphabetical order.
func (c *CurrencyConverter) Currencies() []domain.Currency {
	out := make([]domain.Currency, 0, len(c.rates))
	for cur := range c.rates {
		out = append(out, cur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rate returns the rand rate of cur.
func (c *CurrencyConverter) Rate(cur domain.Currency) (decimal.Decimal, bool) {
	rate, ok := c.rates[cur]
	return rate, ok
}
