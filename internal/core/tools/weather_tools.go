package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type weatherResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  int     `json:"humidity"`
		WindKph   float64 `json:"wind_kph"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func weatherTool(cfg HTTPConfig) *Tool {
	return &Tool{
		Name:        "weather",
		Description: "Get the current weather for a city, e.g. 'Delhi' or 'Lagos'.",
		Parameters: objectSchema(map[string]any{
			"city": stringParam("City name"),
		}, "city"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			city, err := requiredString(inv.Args, "city")
			if err != nil {
				return "", err
			}
			if cfg.WeatherAPIKey == "" {
				return "", fmt.Errorf("weather is not configured (WEATHERAPI_KEY missing)")
			}

			q := url.Values{"key": {cfg.WeatherAPIKey}, "q": {city}, "aqi": {"no"}}
			endpoint := strings.TrimRight(cfg.WeatherURL, "/") + "/v1/current.json?" + q.Encode()

			var w weatherResponse
			// WeatherAPI reports unknown cities as 400 with an error body.
			if _, err := getJSON(ctx, cfg.Client, endpoint, &w, func(code int) bool {
				return code == http.StatusBadRequest
			}); err != nil {
				return "", err
			}
			if w.Error != nil {
				return "Error: " + w.Error.Message, nil
			}
			return fmt.Sprintf("Weather in %s: %.1f°C, %s (humidity %d%%, wind %.1f km/h)",
				w.Location.Name, w.Current.TempC, w.Current.Condition.Text, w.Current.Humidity, w.Current.WindKph), nil
		},
	}
}
