// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, Repository) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	repo := NewSQLRepository(db)
	if err := repo.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db, repo
}

func newTestProject(name, location string, pt *spatial.Point) *Project {
	p := &Project{
		UUID:      uuid.New(),
		Name:      name,
		StartDate: civil.Date{Year: 2024, Month: 3, Day: 15},
		Status:    StatusPending,
		Location:  location,
	}

	if pt != nil {
		p.SetPoint(*pt)
	}

	return p
}

var ignoreBookkeeping = cmpopts.IgnoreFields(Project{}, "ID", "CreatedAt", "UpdatedAt")

func TestCreateSchema(t *testing.T) {
	db, repo := setupTestDB(t)

	var tableName string

	err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = 'projects'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Table not created: %v", err)
	}

	// idempotent
	require.NoError(t, repo.CreateSchema(context.Background()))
}

func TestInsertAndGet(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	desc := "Headquarters"
	end := civil.Date{Year: 2023, Month: 1, Day: 1}
	p := newTestProject("Googleplex", "1600 Amphitheatre Parkway", &spatial.Point{Lat: 37.4221, Lng: -122.0841})
	p.Description = &desc
	p.EndDate = &end

	require.NoError(t, repo.Insert(ctx, p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.Get(ctx, p.UUID)
	require.NoError(t, err)

	if diff := cmp.Diff(p, got, ignoreBookkeeping); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, p.ID, got.ID)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestInsertWithoutCoordinates(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	p := newTestProject("Pending", "somewhere", nil)
	require.NoError(t, repo.Insert(ctx, p))

	got, err := repo.Get(ctx, p.UUID)
	require.NoError(t, err)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.EndDate)
}

func TestCoordinatePrecision(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	lat, lng := -34.90111149, -56.16453351
	p := newTestProject("Precise", "Montevideo", nil)
	p.Latitude, p.Longitude = &lat, &lng

	require.NoError(t, repo.Insert(ctx, p))

	got, err := repo.Get(ctx, p.UUID)
	require.NoError(t, err)
	assert.InDelta(t, -34.901111, *got.Latitude, 1e-9)
	assert.InDelta(t, -56.164534, *got.Longitude, 1e-9)
}

func TestDuplicateName(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newTestProject("Same", "a", nil)))

	err := repo.Insert(ctx, newTestProject("Same", "b", nil))
	require.ErrorIs(t, err, ErrDuplicateName)

	other := newTestProject("Other", "c", nil)
	require.NoError(t, repo.Insert(ctx, other))

	other.Name = "Same"
	require.ErrorIs(t, repo.Update(ctx, other), ErrDuplicateName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdate(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	p := newTestProject("Before", "Montevideo", &spatial.Point{Lat: -34.9011, Lng: -56.1645})
	require.NoError(t, repo.Insert(ctx, p))

	p.Name = "After"
	p.Status = StatusCompleted
	p.SetPoint(spatial.Point{Lat: -34.6037, Lng: -58.3816})
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.UUID)
	require.NoError(t, err)

	if diff := cmp.Diff(p, got, ignoreBookkeeping); diff != "" {
		t.Errorf("Get() after Update() mismatch (-want +got):\n%s", diff)
	}

	missing := newTestProject("Missing", "x", nil)
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestGetAndDeleteNotFound(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, uuid.New()), ErrNotFound)

	p := newTestProject("Doomed", "x", nil)
	require.NoError(t, repo.Insert(ctx, p))
	require.NoError(t, repo.Delete(ctx, p.UUID))

	_, err = repo.Get(ctx, p.UUID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	montevideo := &spatial.Point{Lat: -34.9011, Lng: -56.1645}
	buenosAires := &spatial.Point{Lat: -34.6037, Lng: -58.3816}

	projects := []*Project{
		newTestProject("Rambla Sur", "Rambla, Montevideo", montevideo),
		newTestProject("Obelisco", "Av. 9 de Julio, Buenos Aires", buenosAires),
		newTestProject("Palacio Salvo", "Plaza Independencia, Montevidéo", montevideo),
		newTestProject("Phase  2 Build", "Av. 9 de Julio, Buenos Aires", nil),
	}
	projects[1].Status = StatusCompleted

	for _, p := range projects {
		require.NoError(t, repo.Insert(ctx, p))
	}

	names := func(ps []*Project) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}

		return out
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all in creation order", ListFilter{}, []string{"Rambla Sur", "Obelisco", "Palacio Salvo", "Phase  2 Build"}},
		{"status", ListFilter{Status: StatusCompleted}, []string{"Obelisco"}},
		{"search folds accents and case", ListFilter{Search: "MONTEVIDEO"}, []string{"Rambla Sur", "Palacio Salvo"}},
		{"search name", ListFilter{Search: "salvo"}, []string{"Palacio Salvo"}},
		{"search status", ListFilter{Search: "completed"}, []string{"Obelisco"}},
		{"near", ListFilter{Near: montevideo, Ring: 1}, []string{"Rambla Sur", "Palacio Salvo"}},
		{"near and status", ListFilter{Near: montevideo, Status: StatusCompleted}, nil},
		{"search exact name with repeated spaces", ListFilter{Search: "Phase  2 Build"}, []string{"Phase  2 Build"}},
		{"search collapses whitespace", ListFilter{Search: " phase 2\tbuild "}, []string{"Phase  2 Build"}},
		{"limit offset", ListFilter{Limit: 1, Offset: 1}, []string{"Obelisco"}},
		{"offset without limit", ListFilter{Offset: 2}, []string{"Palacio Salvo", "Phase  2 Build"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, names(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
