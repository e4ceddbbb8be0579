// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/projectmap/config"
	"github.com/jcodagnone/projectmap/project"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openRepository opens the configured store and makes sure its schema exists.
// The returned function releases the connection.
func openRepository(ctx context.Context, storage config.StorageConfig) (project.Repository, func(), error) {
	switch storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, storage.DSN)
	default:
		return openDuckDB(ctx, storage.Path)
	}
}

func openDuckDB(ctx context.Context, path string) (project.Repository, func(), error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := project.NewSQLRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		db.Close()

		return nil, nil, err
	}

	logger.Debug("opened duckdb store", zap.String("path", path))

	return repo, func() { db.Close() }, nil
}

func openPostgres(ctx context.Context, dsn string) (project.Repository, func(), error) {
	gl := gormlogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	repo := project.NewGormRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		sqlDB.Close()

		return nil, nil, err
	}

	logger.Debug("connected to postgres store")

	return repo, func() { sqlDB.Close() }, nil
}
