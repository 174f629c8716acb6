package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type exchangeRates struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func currencyTool(cfg HTTPConfig) *Tool {
	return &Tool{
		Name:        "currency_converter",
		Description: "Convert an amount between currencies using current exchange rates. Example: from_currency USD, to_currency INR, amount 10.",
		Parameters: objectSchema(map[string]any{
			"from_currency": stringParam("ISO 4217 code to convert from, e.g. USD"),
			"to_currency":   stringParam("ISO 4217 code to convert to, e.g. EUR"),
			"amount":        map[string]any{"type": "number", "description": "Amount to convert"},
		}, "from_currency", "to_currency", "amount"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			from, err := requiredString(inv.Args, "from_currency")
			if err != nil {
				return "", err
			}
			to, err := requiredString(inv.Args, "to_currency")
			if err != nil {
				return "", err
			}
			amount, err := decimalArg(inv.Args, "amount")
			if err != nil {
				return "", err
			}
			from, to = strings.ToUpper(from), strings.ToUpper(to)

			var rates exchangeRates
			endpoint := fmt.Sprintf("%s/v4/latest/%s", strings.TrimRight(cfg.ExchangeRateURL, "/"), url.PathEscape(from))
			if _, err := getJSON(ctx, cfg.Client, endpoint, &rates, nil); err != nil {
				return "", fmt.Errorf("fetch rates for %s: %w", from, err)
			}
			rate, ok := rates.Rates[to]
			if !ok {
				return fmt.Sprintf("Conversion failed: no rate from %s to %s.", from, to), nil
			}
			converted := amount.Mul(rate).Round(2)
			return fmt.Sprintf("%s %s = %s %s", amount.String(), from, converted.StringFixed(2), to), nil
		},
	}
}
