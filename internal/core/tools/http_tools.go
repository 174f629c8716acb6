package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxResponseBytes = 1 << 20
	userAgent        = "Mozilla/5.0 (compatible; Devmate/1.0)"
)

// HTTPConfig points the network tools at their upstream APIs. Empty base
// URLs select the public endpoints.
type HTTPConfig struct {
	Client          *http.Client
	ExchangeRateURL string
	WeatherURL      string
	WeatherAPIKey   string
	TavilyURL       string
	TavilyAPIKey    string
	DuckDuckGoURL   string
	StockQuoteURL   string
}

func (c *HTTPConfig) withDefaults() HTTPConfig {
	out := HTTPConfig{}
	if c != nil {
		out = *c
	}
	if out.Client == nil {
		out.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if out.ExchangeRateURL == "" {
		out.ExchangeRateURL = "https://api.exchangerate-api.com"
	}
	if out.WeatherURL == "" {
		out.WeatherURL = "https://api.weatherapi.com"
	}
	if out.TavilyURL == "" {
		out.TavilyURL = "https://api.tavily.com"
	}
	if out.DuckDuckGoURL == "" {
		out.DuckDuckGoURL = "https://html.duckduckgo.com"
	}
	if out.StockQuoteURL == "" {
		out.StockQuoteURL = "https://query1.finance.yahoo.com"
	}
	return out
}

// getJSON decodes a GET response into v. Non-2xx responses are errors unless
// acceptStatus says otherwise.
func getJSON(ctx context.Context, client *http.Client, url string, v any, acceptStatus func(int) bool) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok && (acceptStatus == nil || !acceptStatus(resp.StatusCode)) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("upstream returned %s: %s", resp.Status, body)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
