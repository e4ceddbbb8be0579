// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jcodagnone/projectmap/spatial"
)

const (
	// DefaultEndpoint is the Google Maps Geocoding API JSON endpoint.
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 600 * time.Second
)

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Option configures a GoogleMapsGeocoder.
type Option func(*GoogleMapsGeocoder)

// WithEndpoint overrides the provider URL.
func WithEndpoint(endpoint string) Option {
	return func(g *GoogleMapsGeocoder) {
		g.endpoint = endpoint
	}
}

// WithHTTPClient replaces the HTTP client. The client's own timeout applies.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GoogleMapsGeocoder) {
		g.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. It applies to a copy of the
// current client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(g *GoogleMapsGeocoder) {
		client := *g.httpClient
		client.Timeout = timeout
		g.httpClient = &client
	}
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. An empty apiKey is
// sent as-is; the provider rejects it with REQUEST_DENIED.
func NewGoogleMapsGeocoder(apiKey string, opts ...Option) *GoogleMapsGeocoder {
	g := &GoogleMapsGeocoder{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Resolve performs a single request for address. The HTTP status code is not
// inspected: the provider reports failures through the body's status field.
func (g *GoogleMapsGeocoder) Resolve(ctx context.Context, address string) (spatial.Point, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return spatial.Point{}, &TransportError{Message: "creating geocoding request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return spatial.Point{}, newRequestError(err)
	}

	defer resp.Body.Close()

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		if ctx.Err() != nil {
			return spatial.Point{}, newRequestError(ctx.Err())
		}

		return spatial.Point{}, &TransportError{
			Type:    ErrorTypeMalformedResponse,
			Message: fmt.Sprintf("decoding response (HTTP %d)", resp.StatusCode),
			Err:     err,
		}
	}

	if gmResp.Status != StatusOK {
		return spatial.Point{}, NewResolutionError(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return spatial.Point{}, &TransportError{
			Type:    ErrorTypeMalformedResponse,
			Message: "provider answered OK without results",
		}
	}

	loc := gmResp.Results[0].Geometry.Location

	return spatial.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
