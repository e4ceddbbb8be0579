// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/jcodagnone/projectmap/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubGeocoder answers from a fixed table and records every address.
type stubGeocoder struct {
	points map[string]spatial.Point
	errs   map[string]error
	calls  []string
}

func (s *stubGeocoder) Resolve(_ context.Context, address string) (spatial.Point, error) {
	s.calls = append(s.calls, address)

	if err, ok := s.errs[address]; ok {
		return spatial.Point{}, err
	}

	if p, ok := s.points[address]; ok {
		return p, nil
	}

	return spatial.Point{}, geocoding.NewResolutionError(geocoding.StatusZeroResults, "No results found")
}

const (
	googleplex = "1600 Amphitheatre Parkway, Mountain View, CA"
	nowhere    = "Invalid Address"
	montevideo = "Plaza Independencia, Montevideo"
)

func setupManager(t *testing.T) (*Manager, Repository, *stubGeocoder) {
	_, repo := setupTestDB(t)

	geo := &stubGeocoder{
		points: map[string]spatial.Point{
			googleplex: {Lat: 37.4220936, Lng: -122.083922},
			montevideo: {Lat: -34.9064, Lng: -56.1996},
		},
		errs: map[string]error{},
	}

	return NewManager(repo, geo, nil), repo, geo
}

func createInput(name, location string) Input {
	return Input{
		Name:      Some(name),
		StartDate: Some(civil.Date{Year: 2024, Month: 1, Day: 1}),
		Status:    Some(StatusPending),
		Location:  Some(location),
	}
}

func TestManagerCreateResolvesLocation(t *testing.T) {
	m, repo, geo := setupManager(t)
	ctx := context.Background()

	in := createInput("Test Project", googleplex)
	in.Description = Some("A test project")
	in.EndDate = Some(civil.Date{Year: 2024, Month: 12, Day: 31})

	p, err := m.Create(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.UUID)
	require.NotNil(t, p.Latitude)
	require.NotNil(t, p.Longitude)
	assert.InDelta(t, 37.4221, *p.Latitude, 1e-4)
	assert.Equal(t, 37.422094, *p.Latitude)
	assert.Equal(t, -122.083922, *p.Longitude)
	assert.Equal(t, []string{googleplex}, geo.calls)

	stored, err := repo.Get(ctx, p.UUID)
	require.NoError(t, err)
	assert.Equal(t, *p.Latitude, *stored.Latitude)
	assert.Equal(t, *p.Longitude, *stored.Longitude)
	assert.Equal(t, "A test project", *stored.Description)
}

func TestManagerCreateRejectsUnresolvableLocation(t *testing.T) {
	m, repo, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, createInput("Test Project", nowhere))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string][]string{"location": {"Google Maps API error: No results found"}}, verr.Fields)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestManagerCreateTransportFailure(t *testing.T) {
	m, repo, geo := setupManager(t)
	ctx := context.Background()

	cause := &geocoding.TransportError{Type: geocoding.ErrorTypeTimeout, Message: "geocoding request failed", Err: context.DeadlineExceeded}
	geo.errs[googleplex] = cause

	_, err := m.Create(ctx, createInput("Test Project", googleplex))
	require.ErrorIs(t, err, cause)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestManagerCreateValidatesBeforeResolving(t *testing.T) {
	m, _, geo := setupManager(t)

	_, err := m.Create(context.Background(), Input{Location: Some(googleplex)})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Empty(t, geo.calls)
}

func TestManagerCreateDuplicateName(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, createInput("Twin", googleplex))
	require.NoError(t, err)

	_, err = m.Create(ctx, createInput("Twin", montevideo))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestManagerUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("without location keeps coordinates", func(t *testing.T) {
		m, _, geo := setupManager(t)

		p, err := m.Create(ctx, createInput("Keep", googleplex))
		require.NoError(t, err)

		updated, err := m.Update(ctx, p.UUID, Input{Status: Some(StatusInProgress)}, true)
		require.NoError(t, err)

		assert.Equal(t, StatusInProgress, updated.Status)
		assert.Equal(t, *p.Latitude, *updated.Latitude)
		assert.Equal(t, *p.Longitude, *updated.Longitude)
		assert.Len(t, geo.calls, 1)
	})

	t.Run("with location re-resolves", func(t *testing.T) {
		m, repo, geo := setupManager(t)

		p, err := m.Create(ctx, createInput("Move", googleplex))
		require.NoError(t, err)

		_, err = m.Update(ctx, p.UUID, Input{Location: Some(montevideo)}, true)
		require.NoError(t, err)

		stored, err := repo.Get(ctx, p.UUID)
		require.NoError(t, err)
		assert.Equal(t, montevideo, stored.Location)
		assert.InDelta(t, -34.9064, *stored.Latitude, 1e-9)
		assert.InDelta(t, -56.1996, *stored.Longitude, 1e-9)
		assert.Equal(t, []string{googleplex, montevideo}, geo.calls)
	})

	t.Run("unchanged location is resolved again", func(t *testing.T) {
		m, _, geo := setupManager(t)

		p, err := m.Create(ctx, createInput("Same", googleplex))
		require.NoError(t, err)

		_, err = m.Update(ctx, p.UUID, Input{Location: Some(googleplex)}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{googleplex, googleplex}, geo.calls)
	})

	t.Run("failed resolution leaves record untouched", func(t *testing.T) {
		m, repo, _ := setupManager(t)

		p, err := m.Create(ctx, createInput("Stay", googleplex))
		require.NoError(t, err)

		in := createInput("Renamed", nowhere)

		_, err = m.Update(ctx, p.UUID, in, false)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Google Maps API error: No results found"}, verr.Fields["location"])

		stored, err := repo.Get(ctx, p.UUID)
		require.NoError(t, err)
		assert.Equal(t, "Stay", stored.Name)
		assert.Equal(t, googleplex, stored.Location)
		assert.Equal(t, *p.Latitude, *stored.Latitude)
	})

	t.Run("full update requires every field", func(t *testing.T) {
		m, _, _ := setupManager(t)

		p, err := m.Create(ctx, createInput("Full", googleplex))
		require.NoError(t, err)

		_, err = m.Update(ctx, p.UUID, Input{Status: Some(StatusCompleted)}, false)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "location")
	})

	t.Run("clears nullable fields", func(t *testing.T) {
		m, _, _ := setupManager(t)

		in := createInput("Nullable", googleplex)
		in.Description = Some("temp")

		p, err := m.Create(ctx, in)
		require.NoError(t, err)

		updated, err := m.Update(ctx, p.UUID, Input{Description: Null[string]()}, true)
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
	})

	t.Run("not found", func(t *testing.T) {
		m, _, geo := setupManager(t)

		_, err := m.Update(ctx, uuid.New(), createInput("Ghost", googleplex), false)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, geo.calls)
	})
}

func TestManagerGetListDelete(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, createInput("A", googleplex))
	require.NoError(t, err)
	_, err = m.Create(ctx, createInput("B", montevideo))
	require.NoError(t, err)

	got, err := m.Get(ctx, a.UUID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	all, err := m.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, m.Delete(ctx, a.UUID))
	assert.ErrorIs(t, m.Delete(ctx, a.UUID), ErrNotFound)

	all, err = m.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "B", all[0].Name)
}

func TestManagerRestore(t *testing.T) {
	m, repo, geo := setupManager(t)
	ctx := context.Background()

	lat, lng := 1.5, 2.5
	exported := []*Project{
		{UUID: uuid.New(), Name: "One", StartDate: civil.Date{Year: 2024, Month: 1, Day: 1}, Status: StatusPending, Location: "x", Latitude: &lat, Longitude: &lng},
		{Name: "Two", StartDate: civil.Date{Year: 2024, Month: 1, Day: 1}, Status: StatusCompleted, Location: "y"},
	}

	ticks := 0

	n, err := m.Restore(ctx, exported, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, ticks)
	assert.Empty(t, geo.calls)

	one, err := repo.Get(ctx, exported[0].UUID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, *one.Latitude)
	assert.NotEqual(t, uuid.Nil, exported[1].UUID)

	_, err = m.Restore(ctx, []*Project{{Name: "", Status: StatusPending, Location: "z"}}, nil)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestManagerLogs(t *testing.T) {
	_, repo := setupTestDB(t)
	core, observed := observer.New(zapcore.InfoLevel)

	m := NewManager(repo, &stubGeocoder{points: map[string]spatial.Point{googleplex: {Lat: 1, Lng: 2}}}, zap.New(core))

	p, err := m.Create(context.Background(), createInput("Logged", googleplex))
	require.NoError(t, err)

	entries := observed.FilterMessage("project created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, p.UUID.String(), entries[0].ContextMap()["uuid"])
}
