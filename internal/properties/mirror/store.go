// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
)

var (
	storeLog     *zerolog.Logger
	storeLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	storeLogOnce.Do(func() {
		l := logger.GetPropertiesLogger()
		storeLog = &l
	})
	return storeLog
}

// ErrContractStatusNotFound is returned when a property has no mirror record.
var ErrContractStatusNotFound = errors.New("contract status not found")

// Store persists mirror records. Every mutation appends a ChangeRecord in the
// same transaction, so the change stream never drifts from the table.
type Store struct {
	db *gorm.DB
}

// NewStore creates a mirror store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the mirror record for a property.
func (s *Store) Get(ctx context.Context, propertyID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).First(&rec, "property_id = ?", propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContractStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract status for %s: %w", propertyID, err)
	}
	return &rec, nil
}

// ApplyContractStatus upserts the contract-owned columns from a
// ContractStatusChanged event. The resume-token column is never touched:
// a workflow may already be waiting on this property, and its token must
// survive the status write so the change stream can pair them up.
func (s *Store) ApplyContractStatus(ctx context.Context, event eventbus.ContractStatusChanged) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := lockRecord(tx, event.PropertyID)
		if err != nil {
			return err
		}

		rec := Record{
			PropertyID:             event.PropertyID,
			ContractID:             event.ContractID,
			ContractStatus:         event.ContractStatus,
			ContractLastModifiedOn: event.ContractLastModifiedOn,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "property_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"contract_id", "contract_status", "contract_last_modified_on",
			}),
		}).Create(&rec).Error; err != nil {
			return err
		}

		newImage := Image{
			FieldPropertyID:             event.PropertyID,
			FieldContractID:             event.ContractID,
			FieldContractStatus:         event.ContractStatus,
			FieldContractLastModifiedOn: event.ContractLastModifiedOn.Format(time.RFC3339Nano),
		}
		return appendChange(tx, event.PropertyID, FullImage(old), newImage)
	})
	if err != nil {
		return fmt.Errorf("failed to apply contract status for %s: %w", event.PropertyID, err)
	}

	getLog().Info().
		Str("property_id", event.PropertyID).
		Str("contract_status", event.ContractStatus).
		Msg("Mirrored contract status")
	return nil
}

// SetResumeToken stores the token a paused approval workflow left behind. It
// writes only the token column; the record must already exist, since the
// workflow checks the contract before it pauses. Overwriting an existing
// token is allowed: the newer workflow run supersedes the older one, which
// will never be resumed through the mirror.
func (s *Store) SetResumeToken(ctx context.Context, propertyID, token string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := lockRecord(tx, propertyID)
		if err != nil {
			return err
		}
		if old == nil {
			return ErrContractStatusNotFound
		}
		if old.WaitApprovedTaskToken != "" && old.WaitApprovedTaskToken != token {
			getLog().Warn().
				Str("property_id", propertyID).
				Msg("Replacing resume token; the superseded workflow run will not be resumed")
		}

		if err := tx.Model(&Record{}).
			Where("property_id = ?", propertyID).
			UpdateColumn("wait_approved_task_token", token).Error; err != nil {
			return err
		}

		newImage := Image{
			FieldPropertyID:            propertyID,
			FieldWaitApprovedTaskToken: token,
		}
		return appendChange(tx, propertyID, FullImage(old), newImage)
	})
	if errors.Is(err, ErrContractStatusNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to store resume token for %s: %w", propertyID, err)
	}

	getLog().Info().
		Str("property_id", propertyID).
		Msg("Stored approval resume token")
	return nil
}

// lockRecord loads the current record inside the mutation transaction, or
// nil when the property has no record yet.
func lockRecord(tx *gorm.DB, propertyID string) (*Record, error) {
	var rec Record
	err := tx.First(&rec, "property_id = ?", propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func appendChange(tx *gorm.DB, propertyID string, oldImage, newImage Image) error {
	return tx.Create(&ChangeRecord{
		PropertyID: propertyID,
		OldImage:   oldImage,
		NewImage:   newImage,
		CreatedAt:  time.Now().UTC(),
	}).Error
}
