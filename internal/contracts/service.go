// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package contracts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
)

var (
	svcLog     *zerolog.Logger
	svcLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	svcLogOnce.Do(func() {
		l := logger.GetContractsLogger()
		svcLog = &l
	})
	return svcLog
}

// ErrValidation is returned for requests missing required fields.
var ErrValidation = errors.New("invalid contract request")

// CreateContractInput is the payload for creating a new draft contract.
type CreateContractInput struct {
	PropertyID string           `json:"property_id"`
	Address    eventbus.Address `json:"address"`
	SellerName string           `json:"seller_name"`
}

// Service coordinates contract persistence and event publication.
type Service struct {
	repo      *Repository
	publisher eventbus.Publisher
	now       func() time.Time
}

// NewService creates a contracts service.
func NewService(repo *Repository, publisher eventbus.Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateContract creates a new DRAFT contract for a property and publishes
// ContractStatusChanged.
func (s *Service) CreateContract(ctx context.Context, input CreateContractInput) (*Contract, error) {
	if input.PropertyID == "" || input.SellerName == "" || input.Address == (eventbus.Address{}) {
		return nil, fmt.Errorf("%w: property_id, address and seller_name are required", ErrValidation)
	}

	now := s.now().UTC()
	contract := &Contract{
		PropertyID:     input.PropertyID,
		ContractID:     uuid.NewString(),
		SellerName:     input.SellerName,
		Address:        input.Address,
		Status:         StatusDraft,
		CreatedOn:      now,
		LastModifiedOn: now,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}

	getLog().Info().
		Str("property_id", contract.PropertyID).
		Str("contract_id", contract.ContractID).
		Msg("Created draft contract")

	if err := s.publishStatusChanged(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// ApproveContract transitions an existing contract to APPROVED and publishes
// ContractStatusChanged. The approval event is what eventually resumes any
// publication workflow paused on this property.
func (s *Service) ApproveContract(ctx context.Context, propertyID string) (*Contract, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("%w: property_id is required", ErrValidation)
	}

	contract, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	contract.Status = StatusApproved
	contract.LastModifiedOn = s.now().UTC()

	if err := s.repo.UpdateStatus(ctx, contract); err != nil {
		return nil, err
	}

	getLog().Info().
		Str("property_id", contract.PropertyID).
		Str("contract_id", contract.ContractID).
		Msg("Approved contract")

	if err := s.publishStatusChanged(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, contract *Contract) error {
	event := eventbus.ContractStatusChanged{
		PropertyID:             contract.PropertyID,
		ContractID:             contract.ContractID,
		ContractStatus:         string(contract.Status),
		ContractLastModifiedOn: contract.LastModifiedOn,
	}
	if err := s.publisher.Publish(ctx, eventbus.DetailContractStatusChanged,
		[]string{contract.PropertyID}, event); err != nil {
		return fmt.Errorf("failed to publish contract status change: %w", err)
	}
	return nil
}
