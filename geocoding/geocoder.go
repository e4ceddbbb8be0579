// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves free-text addresses into geographic coordinates.
package geocoding

import (
	"context"

	"github.com/jcodagnone/projectmap/spatial"
)

// Geocoder resolves a free-text address into a point.
//
// Implementations return a *ResolutionError when the provider answered but
// refused to resolve the address, and a *TransportError when the provider
// could not be reached or its answer could not be understood.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (spatial.Point, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) (spatial.Point, error)

// Resolve calls f(ctx, address).
func (f GeocoderFunc) Resolve(ctx context.Context, address string) (spatial.Point, error) {
	return f(ctx, address)
}
