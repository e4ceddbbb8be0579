// Copyright 2025 The ProjectMap Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// CoordinatePlaces is the number of decimal places kept for stored coordinates.
const CoordinatePlaces = 6

// DefaultResolution is the H3 resolution used to index project locations
// (roughly 5 km² hexagons).
const DefaultResolution = 6

// ErrInvalidPoint is returned when a textual point cannot be parsed.
var ErrInvalidPoint = errors.New("invalid point")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Rounded returns the point with both coordinates rounded half away from zero
// to CoordinatePlaces decimals, the precision of a DECIMAL(9,6) column.
func (p Point) Rounded() Point {
	return Point{
		Lat: RoundCoordinate(p.Lat),
		Lng: RoundCoordinate(p.Lng),
	}
}

// Valid reports whether the point lies within the WGS84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("converting %s to h3 cell at res %d: %w", p, res, err)
	}

	return cell, nil
}

// Neighborhood returns the H3 cells within k rings of the point, the point's
// own cell included.
func (p Point) Neighborhood(res, k int) ([]h3.Cell, error) {
	origin, err := p.Cell(res)
	if err != nil {
		return nil, err
	}

	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("computing grid disk of %s: %w", origin, err)
	}

	return cells, nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// RoundCoordinate rounds a single coordinate to CoordinatePlaces decimals.
func RoundCoordinate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(CoordinatePlaces).InexactFloat64()
}

// ParsePoint parses a "lat,lng" pair such as the one accepted by the
// project listing's near filter.
func ParsePoint(s string) (Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q is not a lat,lng pair", ErrInvalidPoint, s)
	}

	var (
		p   Point
		err error
	)

	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q: %w", ErrInvalidPoint, lat, err)
	}

	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q: %w", ErrInvalidPoint, lng, err)
	}

	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %s is out of range", ErrInvalidPoint, p)
	}

	return p, nil
}
