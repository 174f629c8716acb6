package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string           `json:"symbol"`
				Currency           string           `json:"currency"`
				RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var currencySymbols = map[string]string{
	"USD": "$",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func stockPriceTool(cfg HTTPConfig) *Tool {
	return &Tool{
		Name: "stock_price",
		Description: "Get the latest market price for a stock ticker. " +
			`Examples: "AAPL" (Apple), "TSLA" (Tesla), "RELIANCE.NS" (Reliance Industries on NSE).`,
		Parameters: objectSchema(map[string]any{
			"ticker": stringParam("Exchange ticker symbol, with a market suffix for non-US listings"),
		}, "ticker"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			ticker, err := requiredString(inv.Args, "ticker")
			if err != nil {
				return "", err
			}
			ticker = strings.ToUpper(strings.TrimSpace(ticker))

			var chart chartResponse
			endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
				strings.TrimRight(cfg.StockQuoteURL, "/"), url.PathEscape(ticker))
			notFound := func(code int) bool { return code == http.StatusNotFound }
			if _, err := getJSON(ctx, cfg.Client, endpoint, &chart, notFound); err != nil {
				return "", fmt.Errorf("fetch quote for %s: %w", ticker, err)
			}

			if len(chart.Chart.Result) == 0 || chart.Chart.Result[0].Meta.RegularMarketPrice == nil {
				return fmt.Sprintf("Price not found for %s.", ticker), nil
			}
			meta := chart.Chart.Result[0].Meta
			return fmt.Sprintf("Current price of %s: %s", ticker, formatPrice(*meta.RegularMarketPrice, meta.Currency)), nil
		},
	}
}

func formatPrice(price decimal.Decimal, currency string) string {
	amount := price.StringFixed(2)
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sym + amount
	}
	if currency == "" {
		return amount
	}
	return amount + " " + strings.ToUpper(currency)
}
