// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
)

// Repository persists projects. Implementations enforce name uniqueness and
// report violations as ErrDuplicateName.
type Repository interface {
	// CreateSchema creates the projects table
	CreateSchema(ctx context.Context) error

	// Insert stores a new project and fills its ID and timestamps. The UUID
	// must already be set.
	Insert(ctx context.Context, p *Project) error

	// Update overwrites the stored project with the same UUID.
	Update(ctx context.Context, p *Project) error

	// Get returns the project with the given UUID.
	Get(ctx context.Context, id uuid.UUID) (*Project, error)

	// List returns the projects matching f in creation order.
	List(ctx context.Context, f ListFilter) ([]*Project, error)

	// Delete removes the project with the given UUID.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of projects, regardless of any filter.
	Count(ctx context.Context) (int, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

type sqlProjectRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a DuckDB backed repository.
func NewSQLRepository(db *sql.DB) Repository {
	return &sqlProjectRepository{db: db}
}

func (r *sqlProjectRepository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE SEQUENCE IF NOT EXISTS projects_seq START 1;

		CREATE TABLE IF NOT EXISTS projects (
			id BIGINT PRIMARY KEY DEFAULT nextval('projects_seq'),
			uuid VARCHAR NOT NULL UNIQUE,
			name VARCHAR NOT NULL UNIQUE,
			description TEXT,
			start_date DATE NOT NULL,
			end_date DATE,
			status VARCHAR NOT NULL,
			location VARCHAR NOT NULL,
			latitude DECIMAL(9, 6),
			longitude DECIMAL(9, 6),
			h3_cell BIGINT,
			search_key VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating projects schema: %w", err)
	}

	return nil
}

func (r *sqlProjectRepository) Insert(ctx context.Context, p *Project) error {
	cell, err := p.cell()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	p.UpdatedAt = now

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO projects (
			uuid,
			name,
			description,
			start_date,
			end_date,
			status,
			location,
			latitude,
			longitude,
			h3_cell,
			search_key,
			created_at,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		p.UUID.String(),
		p.Name,
		p.Description,
		dateValue(&p.StartDate),
		dateValue(p.EndDate),
		string(p.Status),
		p.Location,
		p.Latitude,
		p.Longitude,
		cell,
		p.searchKey(),
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return translateDuckDBError(err)
	}

	return nil
}

func (r *sqlProjectRepository) Update(ctx context.Context, p *Project) error {
	cell, err := p.cell()
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, start_date = ?, end_date = ?,
		    status = ?, location = ?, latitude = ?, longitude = ?,
		    h3_cell = ?, search_key = ?, updated_at = ?
		WHERE uuid = ?
	`,
		p.Name,
		p.Description,
		dateValue(&p.StartDate),
		dateValue(p.EndDate),
		string(p.Status),
		p.Location,
		p.Latitude,
		p.Longitude,
		cell,
		p.searchKey(),
		p.UpdatedAt,
		p.UUID.String(),
	)
	if err != nil {
		return translateDuckDBError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.UUID, err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

const selectProjects = `
	SELECT
		id,
		uuid,
		name,
		description,
		start_date,
		end_date,
		status,
		location,
		CAST(latitude AS DOUBLE),
		CAST(longitude AS DOUBLE),
		created_at,
		updated_at
	FROM projects
`

func (r *sqlProjectRepository) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProjects+" WHERE uuid = ?", id.String())
	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", id, err)
	}

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}

	if len(projects) == 0 {
		return nil, ErrNotFound
	}

	return projects[0], nil
}

func (r *sqlProjectRepository) List(ctx context.Context, f ListFilter) ([]*Project, error) {
	var (
		conditions []string
		args       []any
	)

	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}

	if needle := f.searchNeedle(); needle != "" {
		conditions = append(conditions, "contains(search_key, ?)")
		args = append(args, needle)
	}

	cells, err := f.cells()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	if f.Near != nil {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cells)), ", ")
		conditions = append(conditions, "h3_cell IN ("+placeholders+")")

		for _, c := range cells {
			args = append(args, c)
		}
	}

	query := selectProjects
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return scanProjects(rows)
}

func (r *sqlProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE uuid = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sqlProjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}

	return count, nil
}

func (r *sqlProjectRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanProjects(rows *sql.Rows) ([]*Project, error) {
	defer rows.Close()

	var projects []*Project

	for rows.Next() {
		var (
			p           Project
			status      string
			description sql.NullString
			startDate   time.Time
			endDate     sql.NullTime
			lat, lng    sql.NullFloat64
		)

		if err := rows.Scan(
			&p.ID,
			&p.UUID,
			&p.Name,
			&description,
			&startDate,
			&endDate,
			&status,
			&p.Location,
			&lat,
			&lng,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}

		p.Status = Status(status)
		p.StartDate = civil.DateOf(startDate)

		if description.Valid {
			p.Description = &description.String
		}

		if endDate.Valid {
			d := civil.DateOf(endDate.Time)
			p.EndDate = &d
		}

		if lat.Valid && lng.Valid {
			p.Latitude, p.Longitude = &lat.Float64, &lng.Float64
		}

		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return projects, nil
}

// dateValue converts a date into the value bound for a DATE column.
func dateValue(d *civil.Date) any {
	if d == nil {
		return nil
	}

	return d.In(time.UTC)
}

func translateDuckDBError(err error) error {
	// Constraint Error: Duplicate key "name: X" violates unique constraint.
	msg := err.Error()

	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		if duckErr.Type != duckdb.ErrorTypeConstraint {
			return fmt.Errorf("storing project: %w", err)
		}

		msg = duckErr.Msg
	}

	if strings.Contains(msg, `Duplicate key "name:`) {
		return ErrDuplicateName
	}

	return fmt.Errorf("storing project: %w", err)
}
