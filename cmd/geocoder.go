// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net/http"
	"os"

	"github.com/jcodagnone/projectmap/config"
	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/jcodagnone/projectmap/utils/httputils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// newGeocoder builds the Google Maps geocoder described by gc. Collectors are
// registered with reg unless it is nil.
func newGeocoder(ctx context.Context, gc config.GeocodingConfig, reg prometheus.Registerer) geocoding.Geocoder {
	apiKey := gc.APIKey
	if apiKey == "" && gc.KeyFromADC {
		logger.Info("GOOGLE_MAPS_API_KEY is not set, attempting to retrieve it via ADC")

		key, err := geocoding.APIKeyFromADC(ctx, geocoding.ADCLookup{
			ProjectID:   gc.ProjectID,
			DisplayName: gc.KeyDisplayName,
		}, logger)
		if err != nil {
			logger.Warn("failed to retrieve API key via ADC", zap.Error(err))
		} else {
			apiKey = key
		}
	}

	if apiKey == "" {
		logger.Warn("geocoding API key is empty, every location will be rejected by the provider")
	}

	transport := http.DefaultTransport
	if gc.Trace {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    os.Stderr,
			DumpBody:  true,
			Redact:    []string{apiKey},
		}
	}

	client := &http.Client{
		Timeout: gc.Timeout,
		Transport: &httputils.AppendRequestHeadersRoundTripper{
			Transport: transport,
			Headers:   map[string]string{"User-Agent": "projectmap/" + Version},
		},
	}

	g := geocoding.NewGoogleMapsGeocoder(apiKey,
		geocoding.WithEndpoint(gc.Endpoint),
		geocoding.WithHTTPClient(client),
	)

	return geocoding.NewInstrumented(g, logger.Named("geocoding"), reg)
}
