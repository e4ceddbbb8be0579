// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/geocoding"
	"go.uber.org/zap"
)

// Manager owns the project lifecycle. Writes that carry a location resolve
// it first and store nothing if resolution fails.
type Manager struct {
	repo     Repository
	geocoder geocoding.Geocoder
	logger   *zap.Logger
}

// NewManager creates a Manager.
func NewManager(repo Repository, geocoder geocoding.Geocoder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{repo: repo, geocoder: geocoder, logger: logger}
}

// Create validates in, resolves its location and stores a new project.
func (m *Manager) Create(ctx context.Context, in Input) (*Project, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	p := &Project{UUID: uuid.New()}
	in.apply(p)

	if err := m.locate(ctx, p); err != nil {
		return nil, err
	}

	if err := m.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	m.logger.Info("project created", zap.Stringer("uuid", p.UUID), zap.String("name", p.Name))

	return p, nil
}

// Update changes the project identified by id. Only the fields set in in are
// modified. When in carries a location it is resolved again, even if
// unchanged; otherwise the stored coordinates are kept.
//
// A full update (partial false) requires every required field.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, in Input, partial bool) (*Project, error) {
	p, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(partial); err != nil {
		return nil, err
	}

	in.apply(p)

	if in.Location.Set {
		if err := m.locate(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := m.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	m.logger.Info("project updated",
		zap.Stringer("uuid", p.UUID),
		zap.Bool("partial", partial),
		zap.Bool("relocated", in.Location.Set))

	return p, nil
}

// Get returns the project identified by id.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return m.repo.Get(ctx, id)
}

// List returns the projects matching f.
func (m *Manager) List(ctx context.Context, f ListFilter) ([]*Project, error) {
	return m.repo.List(ctx, f)
}

// Delete removes the project identified by id.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}

	m.logger.Info("project deleted", zap.Stringer("uuid", id))

	return nil
}

// Ping checks the store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

// Restore stores previously exported projects as they are. Coordinates are
// kept and nothing is resolved. Projects without a UUID get a new one.
func (m *Manager) Restore(ctx context.Context, projects []*Project, progress func()) (int, error) {
	restored := 0

	for _, p := range projects {
		in := InputOf(p)
		if err := in.Validate(false); err != nil {
			return restored, fmt.Errorf("restoring %q: %w", p.Name, err)
		}

		if p.UUID == uuid.Nil {
			p.UUID = uuid.New()
		}

		if err := m.repo.Insert(ctx, p); err != nil {
			return restored, fmt.Errorf("restoring %q: %w", p.Name, err)
		}

		restored++

		if progress != nil {
			progress()
		}
	}

	return restored, nil
}

// locate resolves p.Location and stores the coordinates on p. A provider
// refusal becomes a ValidationError on the location field.
func (m *Manager) locate(ctx context.Context, p *Project) error {
	pt, err := m.geocoder.Resolve(ctx, p.Location)
	if err != nil {
		var resErr *geocoding.ResolutionError
		if errors.As(err, &resErr) {
			return NewValidationError("location", resErr.Error())
		}

		return fmt.Errorf("resolving location %q: %w", p.Location, err)
	}

	p.SetPoint(pt)

	return nil
}
