// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activities implements the approval workflow's activities.
package activities

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

// ContractStatusNotFoundError is the application error type raised when a
// property has no contract on file. It is non-retryable: retrying cannot
// conjure a contract, and the workflow must fail fast.
const ContractStatusNotFoundError = "ContractStatusNotFound"

var (
	actLog     *zerolog.Logger
	actLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	actLogOnce.Do(func() {
		l := logger.GetPropertiesLogger().With().Str("component", "activities").Logger()
		actLog = &l
	})
	return actLog
}

// ContractActivities reads and writes the contract status mirror.
type ContractActivities struct {
	store *mirror.Store
}

// NewContractActivities creates the contract activity set.
func NewContractActivities(store *mirror.Store) *ContractActivities {
	return &ContractActivities{store: store}
}

// CheckContractExistsActivity verifies the property has a contract in the
// mirror. The contract may be in any status; existence is all that is
// checked here.
func (a *ContractActivities) CheckContractExistsActivity(ctx context.Context, input types.CheckContractExistsInput) error {
	rec, err := a.store.Get(ctx, input.PropertyID)
	if errors.Is(err, mirror.ErrContractStatusNotFound) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("no contract found for property %s", input.PropertyID),
			ContractStatusNotFoundError,
			err,
		)
	}
	if err != nil {
		return err
	}

	getLog().Info().
		Str("property_id", input.PropertyID).
		Str("contract_status", rec.ContractStatus).
		Msg("Contract exists for property")
	return nil
}

// WaitForContractApprovalActivity parks the workflow until the contract is
// approved. It stores this activity's task token in the mirror and returns
// ErrResultPending; the change-stream synchronizer completes the activity
// with the merged contract record once a change shows the contract APPROVED
// with the token present. If the contract is already APPROVED, the token
// write itself produces that change, so the wait still resolves without a
// new contract event.
func (a *ContractActivities) WaitForContractApprovalActivity(ctx context.Context, input types.WaitForContractApprovalInput) (types.ContractStatusRecord, error) {
	info := activity.GetInfo(ctx)
	token := base64.StdEncoding.EncodeToString(info.TaskToken)

	if err := a.store.SetResumeToken(ctx, input.PropertyID, token); err != nil {
		return types.ContractStatusRecord{}, err
	}

	getLog().Info().
		Str("property_id", input.PropertyID).
		Str("workflow_id", info.WorkflowExecution.ID).
		Msg("Paused approval workflow until contract approval")
	return types.ContractStatusRecord{}, activity.ErrResultPending
}
