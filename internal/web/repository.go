// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPropertyNotFound is returned when no listing exists at an address.
var ErrPropertyNotFound = errors.New("property not found")

// Repository is the gorm-backed listing store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save upserts a listing at its address key.
func (r *Repository) Save(ctx context.Context, property *Property) error {
	property.PK, property.SK = Keys(property.Country, property.City, property.Street, property.Number)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
			UpdateAll: true,
		}).
		Create(property).Error
	if err != nil {
		return fmt.Errorf("failed to save property %s: %w", property.PropertyID(), err)
	}
	return nil
}

// Get returns the listing at an address.
func (r *Repository) Get(ctx context.Context, country, city, street string, number int) (*Property, error) {
	pk, sk := Keys(country, city, street, number)

	var property Property
	err := r.db.WithContext(ctx).First(&property, "pk = ? AND sk = ?", pk, sk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load property %s/%s: %w", pk, sk, err)
	}
	return &property, nil
}

// List returns every listing in a city, whatever its status.
func (r *Repository) List(ctx context.Context, country, city string) ([]Property, error) {
	var properties []Property
	err := r.db.WithContext(ctx).
		Where("pk = ?", PartitionKey(country, city)).
		Order("sk asc").
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list properties for %s/%s: %w", country, city, err)
	}
	return properties, nil
}

// UpdateStatus sets only the publication status of a listing.
func (r *Repository) UpdateStatus(ctx context.Context, country, city, street string, number int, status string) error {
	pk, sk := Keys(country, city, street, number)

	res := r.db.WithContext(ctx).
		Model(&Property{}).
		Where("pk = ? AND sk = ?", pk, sk).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update property status %s/%s: %w", pk, sk, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
