// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package properties glues the event fabric to the approval machinery: it
// mirrors contract status changes and starts an approval workflow for every
// publication request.
package properties

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

var (
	svcLog     *zerolog.Logger
	svcLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	svcLogOnce.Do(func() {
		l := logger.GetPropertiesLogger()
		svcLog = &l
	})
	return svcLog
}

// WorkflowStarter starts an approval workflow run. Implemented by the
// properties Temporal client.
type WorkflowStarter interface {
	StartApproval(ctx context.Context, input types.ApprovalWorkflowInput) error
}

// Service handles the properties-side event subscriptions.
type Service struct {
	store   *mirror.Store
	starter WorkflowStarter
}

// NewService creates the properties event service.
func NewService(store *mirror.Store, starter WorkflowStarter) *Service {
	return &Service{store: store, starter: starter}
}

// HandleContractStatusChanged mirrors a contract event into the local store.
// Replays are harmless: applying the same status twice leaves the mirror
// unchanged apart from an extra change-log entry the synchronizer ignores.
func (s *Service) HandleContractStatusChanged(ctx context.Context, envelope eventbus.Envelope) error {
	var event eventbus.ContractStatusChanged
	if err := envelope.DecodeDetail(&event); err != nil {
		return fmt.Errorf("malformed contract status event: %w", err)
	}
	if event.PropertyID == "" {
		return fmt.Errorf("contract status event missing property_id")
	}

	return s.store.ApplyContractStatus(ctx, event)
}

// HandlePublicationApprovalRequested starts an approval workflow for a
// publication request.
func (s *Service) HandlePublicationApprovalRequested(ctx context.Context, envelope eventbus.Envelope) error {
	var event eventbus.PublicationApprovalRequested
	if err := envelope.DecodeDetail(&event); err != nil {
		return fmt.Errorf("malformed approval request event: %w", err)
	}
	if event.PropertyID == "" {
		return fmt.Errorf("approval request event missing property_id")
	}

	input := types.ApprovalWorkflowInput{
		PropertyID:  event.PropertyID,
		Address:     event.Address,
		Images:      event.Images,
		Description: event.Description,
	}
	if err := s.starter.StartApproval(ctx, input); err != nil {
		return fmt.Errorf("failed to start approval for %s: %w", event.PropertyID, err)
	}

	getLog().Info().
		Str("property_id", event.PropertyID).
		Msg("Started approval workflow for publication request")
	return nil
}
