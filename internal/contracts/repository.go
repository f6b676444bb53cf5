// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package contracts

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrContractNotFound is returned when no contract exists for a property.
var ErrContractNotFound = errors.New("contract not found")

// Repository is the gorm-backed contract store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a contract repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the contract for a property.
func (r *Repository) Get(ctx context.Context, propertyID string) (*Contract, error) {
	var contract Contract
	err := r.db.WithContext(ctx).First(&contract, "property_id = ?", propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract for %s: %w", propertyID, err)
	}
	return &contract, nil
}

// Create inserts a new contract. An existing contract for the same property
// is replaced, matching the original whole-record put semantics of contract
// creation.
func (r *Repository) Create(ctx context.Context, contract *Contract) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}},
			UpdateAll: true,
		}).
		Create(contract).Error
	if err != nil {
		return fmt.Errorf("failed to create contract for %s: %w", contract.PropertyID, err)
	}
	return nil
}

// UpdateStatus updates only the status and modification timestamp of an
// existing contract.
func (r *Repository) UpdateStatus(ctx context.Context, contract *Contract) error {
	res := r.db.WithContext(ctx).
		Model(&Contract{}).
		Where("property_id = ?", contract.PropertyID).
		Updates(map[string]any{
			"contract_status":           contract.Status,
			"contract_last_modified_on": contract.LastModifiedOn,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update contract status for %s: %w", contract.PropertyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrContractNotFound
	}
	return nil
}
