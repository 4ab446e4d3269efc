// Package currency converts invoice amounts into USD equivalents.
package currency

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the Converter to the fx graph.
var Module = fx.Module("currency",
	fx.Provide(NewConverter),
)

// usdRates maps ISO currency codes to their USD exchange rate.
// Rates are static; live rates are out of scope for invoice display.
var usdRates = map[string]float64{
	"USD": 1.0,
	"EUR": 1.09,
	"GBP": 1.27,
	"CAD": 0.72,
	"AUD": 0.64,
	"JPY": 0.0067,
	"CHF": 1.12,
}

// Converter converts amounts between currencies using the static rate table.
type Converter struct {
	log *zap.Logger
}

func NewConverter(log *zap.Logger) *Converter {
	return &Converter{log: log.Named("currency.converter")}
}

// ToUSD converts an amount in the given currency to USD. Unknown currency
// codes degrade to a 1:1 rate with a warning rather than failing the caller.
func (c *Converter) ToUSD(amount float64, currencyCode string) float64 {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	rate, ok := usdRates[code]
	if !ok {
		c.log.Warn("unknown currency code, assuming 1:1 USD rate",
			zap.String("currency", currencyCode),
		)
		rate = 1.0
	}
	return amount * rate
}

// ToUSDT converts an amount to USDT. USDT is treated as pegged 1:1 to USD.
func (c *Converter) ToUSDT(amount float64, currencyCode string) float64 {
	return c.ToUSD(amount, currencyCode)
}

// Supported reports whether the currency code exists in the rate table.
func (c *Converter) Supported(currencyCode string) bool {
	_, ok := usdRates[strings.ToUpper(strings.TrimSpace(currencyCode))]
	return ok
}
