// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/contracts"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/stream"
	"github.com/propertyflow/propertyflow/internal/web"
)

// GormDB wraps the GORM database connection
type GormDB struct {
	db *gorm.DB
}

// NewGormDB creates a new GORM database connection
func NewGormDB(cfg *config.DatabaseConfig) (*GormDB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce GORM log noise
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &GormDB{db: db}, nil
}

// DB returns the underlying gorm handle.
func (g *GormDB) DB() *gorm.DB {
	return g.db
}

// AutoMigrate runs database migrations for every service store.
func (g *GormDB) AutoMigrate() error {
	return g.db.AutoMigrate(
		&contracts.Contract{},
		&mirror.Record{},
		&mirror.ChangeRecord{},
		&stream.Checkpoint{},
		&stream.DeadLetter{},
		&web.Property{},
	)
}

// ValidateSchema checks that the tables the services rely on exist.
func (g *GormDB) ValidateSchema() error {
	var missing []string

	for name, model := range map[string]any{
		"contracts":              &contracts.Contract{},
		"contract_status_mirror": &mirror.Record{},
		"mirror_changes":         &mirror.ChangeRecord{},
		"stream_checkpoints":     &stream.Checkpoint{},
		"stream_dead_letters":    &stream.DeadLetter{},
		"properties":             &web.Property{},
	} {
		if !g.db.Migrator().HasTable(model) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %v (run the migrate command)", missing)
	}
	return nil
}

// Close closes the underlying connection pool.
func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
