// Package weather fetches current conditions for the athlete's location.
// Callers treat any failure as "no correction": the plan falls back to a
// zero pace delta instead of blocking on the forecast service.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sample is the current-conditions reading the pace correction consumes.
type Sample struct {
	TemperatureC float64
	DewPointC    float64
	HumidityPct  float64
	WindKmh      float64
}

// Client queries an open-meteo-compatible forecast endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// currentResponse is the subset of the forecast payload we read.
type currentResponse struct {
	Current struct {
		Temperature2m      float64 `json:"temperature_2m"`
		DewPoint2m         float64 `json:"dew_point_2m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
		WindSpeed10m       float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current fetches the conditions at a coordinate.
func (c *Client) Current(ctx context.Context, latitude, longitude float64) (Sample, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", longitude))
	query.Set("current", "temperature_2m,dew_point_2m,relative_humidity_2m,wind_speed_10m")
	query.Set("wind_speed_unit", "kmh")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+query.Encode(), nil)
	if err != nil {
		return Sample{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch conditions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Sample{}, fmt.Errorf("forecast service returned status %d: %s", resp.StatusCode, body)
	}

	var decoded currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Sample{}, fmt.Errorf("decode conditions: %w", err)
	}

	return Sample{
		TemperatureC: decoded.Current.Temperature2m,
		DewPointC:    decoded.Current.DewPoint2m,
		HumidityPct:  decoded.Current.RelativeHumidity2m,
		WindKmh:      decoded.Current.WindSpeed10m,
	}, nil
}
