// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// projectRow is the Postgres mapping of a Project.
type projectRow struct {
	ID          int64               `gorm:"primaryKey;autoIncrement"`
	UUID        uuid.UUID           `gorm:"type:uuid;uniqueIndex:idx_projects_uuid;not null"`
	Name        string              `gorm:"size:255;uniqueIndex:idx_projects_name;not null"`
	Description *string             `gorm:"type:text"`
	StartDate   time.Time           `gorm:"type:date;not null"`
	EndDate     *time.Time          `gorm:"type:date"`
	Status      string              `gorm:"size:20;not null;index"`
	Location    string              `gorm:"size:512;not null"`
	Latitude    decimal.NullDecimal `gorm:"type:numeric(9,6)"`
	Longitude   decimal.NullDecimal `gorm:"type:numeric(9,6)"`
	H3Cell      *int64              `gorm:"index"`
	SearchKey   string              `gorm:"type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (projectRow) TableName() string { return "projects" }

func newProjectRow(p *Project) (*projectRow, error) {
	cell, err := p.cell()
	if err != nil {
		return nil, err
	}

	row := &projectRow{
		ID:          p.ID,
		UUID:        p.UUID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate.In(time.UTC),
		Status:      string(p.Status),
		Location:    p.Location,
		Latitude:    nullDecimal(p.Latitude),
		Longitude:   nullDecimal(p.Longitude),
		H3Cell:      cell,
		SearchKey:   p.searchKey(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if p.EndDate != nil {
		t := p.EndDate.In(time.UTC)
		row.EndDate = &t
	}

	return row, nil
}

func (row *projectRow) project() *Project {
	p := &Project{
		ID:          row.ID,
		UUID:        row.UUID,
		Name:        row.Name,
		Description: row.Description,
		StartDate:   civil.DateOf(row.StartDate),
		Status:      Status(row.Status),
		Location:    row.Location,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if row.EndDate != nil {
		d := civil.DateOf(*row.EndDate)
		p.EndDate = &d
	}

	if row.Latitude.Valid && row.Longitude.Valid {
		lat, lng := row.Latitude.Decimal.InexactFloat64(), row.Longitude.Decimal.InexactFloat64()
		p.Latitude, p.Longitude = &lat, &lng
	}

	return p
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(decimal.NewFromFloat(*v).Round(6))
}

type gormProjectRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a Postgres backed repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) CreateSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&projectRow{}); err != nil {
		return fmt.Errorf("migrating projects schema: %w", err)
	}

	return nil
}

func (r *gormProjectRepository) Insert(ctx context.Context, p *Project) error {
	row, err := newProjectRow(p)
	if err != nil {
		return err
	}

	row.ID = 0

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translatePgError(err)
	}

	p.ID, p.CreatedAt, p.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt

	return nil
}

func (r *gormProjectRepository) Update(ctx context.Context, p *Project) error {
	row, err := newProjectRow(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&projectRow{}).
		Where("uuid = ?", p.UUID).
		Updates(map[string]any{
			"name":        row.Name,
			"description": row.Description,
			"start_date":  row.StartDate,
			"end_date":    row.EndDate,
			"status":      row.Status,
			"location":    row.Location,
			"latitude":    row.Latitude,
			"longitude":   row.Longitude,
			"h3_cell":     row.H3Cell,
			"search_key":  row.SearchKey,
			"updated_at":  p.UpdatedAt,
		})
	if result.Error != nil {
		return translatePgError(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *gormProjectRepository) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	var row projectRow

	err := r.db.WithContext(ctx).Where("uuid = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", id, err)
	}

	return row.project(), nil
}

func (r *gormProjectRepository) List(ctx context.Context, f ListFilter) ([]*Project, error) {
	q := r.db.WithContext(ctx).Model(&projectRow{})

	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	if needle := f.searchNeedle(); needle != "" {
		q = q.Where("strpos(search_key, ?) > 0", needle)
	}

	cells, err := f.cells()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	if f.Near != nil {
		q = q.Where("h3_cell IN ?", cells)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []projectRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]*Project, len(rows))
	for i := range rows {
		projects[i] = rows[i].project()
	}

	return projects, nil
}

func (r *gormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&projectRow{})
	if result.Error != nil {
		return fmt.Errorf("deleting project %s: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *gormProjectRepository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&projectRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}

	return int(count), nil
}

func (r *gormProjectRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "name") {
		return ErrDuplicateName
	}

	return fmt.Errorf("storing project: %w", err)
}
