// Package geo resolves coordinates to addresses against a
// nominatim-compatible reverse geocoding service.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// NominatimClient calls the /reverse endpoint of a nominatim-style server.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimClient creates a client against baseURL
// (e.g. https://nominatim.openstreetmap.org).
func NewNominatimClient(baseURL string) *NominatimClient {
	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves the coordinates to a display address.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reverse geocode: decode: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("reverse geocode: %s", body.Error)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode: empty result")
	}
	return body.DisplayName, nil
}
