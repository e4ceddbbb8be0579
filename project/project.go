// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package project manages the project catalog: its records, their storage and
// the resolution of each project's location into coordinates.
package project

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/spatial"
	"github.com/jcodagnone/projectmap/utils/textutils"
)

// Field limits.
const (
	MaxNameLength     = 255
	MaxLocationLength = 512
)

// Status is the lifecycle status of a project.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the accepted statuses in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Project is a cataloged work initiative.
//
// Latitude and Longitude are only ever set from a successful resolution of
// Location; they are never taken from client input.
type Project struct {
	ID          int64       `json:"-"`
	UUID        uuid.UUID   `json:"uuid"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	StartDate   civil.Date  `json:"start_date"`
	EndDate     *civil.Date `json:"end_date"`
	Status      Status      `json:"status"`
	Location    string      `json:"location"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (p *Project) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.UUID)
}

// Point returns the resolved coordinates, if any.
func (p *Project) Point() (spatial.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return spatial.Point{}, false
	}

	return spatial.Point{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// SetPoint stores pt rounded to the stored coordinate precision.
func (p *Project) SetPoint(pt spatial.Point) {
	pt = pt.Rounded()
	p.Latitude = &pt.Lat
	p.Longitude = &pt.Lng
}

// searchKey is the folded text matched by ListFilter.Search.
func (p *Project) searchKey() string {
	return textutils.SearchKey(p.Name, p.Location, string(p.Status))
}

// cell is the H3 index of the project's point, or nil if unresolved.
func (p *Project) cell() (*int64, error) {
	pt, ok := p.Point()
	if !ok {
		return nil, nil
	}

	c, err := pt.Cell(spatial.DefaultResolution)
	if err != nil {
		return nil, err
	}

	v := int64(c)

	return &v, nil
}

// ListFilter narrows List results. Zero values disable each criterion.
type ListFilter struct {
	Status Status
	// Search is matched, accent and case insensitive, against the name,
	// location and status.
	Search string
	// Near restricts results to projects within Ring H3 rings of the point.
	Near   *spatial.Point
	Ring   int
	Limit  int
	Offset int
}

// searchNeedle returns the folded Search term.
func (f ListFilter) searchNeedle() string {
	return textutils.FoldSearch(f.Search)
}

// cells returns the H3 cells covered by the Near criterion.
func (f ListFilter) cells() ([]int64, error) {
	if f.Near == nil {
		return nil, nil
	}

	cells, err := f.Near.Neighborhood(spatial.DefaultResolution, f.Ring)
	if err != nil {
		return nil, err
	}

	out := make([]int64, len(cells))
	for i, c := range cells {
		out[i] = int64(c)
	}

	return out, nil
}
