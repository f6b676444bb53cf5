// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workflows holds the property publication approval workflow.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
	"github.com/propertyflow/propertyflow/internal/properties/validation"
)

const (
	ApprovalWorkflowName = "PropertyApprovalWorkflow"

	// waitForApprovalTimeout bounds the paused wait step. A contract may take
	// arbitrarily long to be approved, so the bound is a year, not minutes.
	waitForApprovalTimeout = 365 * 24 * time.Hour
)

// ApprovalWorkflow evaluates one publication request end to end:
//
//  1. Verify the property has a contract on file; fail fast if not.
//  2. Pause until that contract is approved, however long that takes.
//  3. Run image moderation and description sentiment in parallel.
//  4. Combine the verdicts and publish the evaluation result.
//
// A listing that fails content validation completes the workflow
// successfully with a DECLINED result; only a missing contract or an
// unreachable event fabric fails the workflow itself.
func ApprovalWorkflow(ctx workflow.Context, input types.ApprovalWorkflowInput) (*types.ApprovalWorkflowOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting property approval workflow",
		"propertyID", input.PropertyID,
		"images", len(input.Images))

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	// Step 1: the property must have a contract before anything else runs.
	err := workflow.ExecuteActivity(ctx, "CheckContractExistsActivity", types.CheckContractExistsInput{
		PropertyID: input.PropertyID,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("No contract on file for property", "propertyID", input.PropertyID, "error", err)
		return nil, err
	}

	// Step 2: park until the contract is approved. The activity completes
	// asynchronously via the change-stream synchronizer, so retries are
	// disabled: a retry would overwrite the stored resume token.
	waitOptions := workflow.ActivityOptions{
		StartToCloseTimeout: waitForApprovalTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	waitCtx := workflow.WithActivityOptions(ctx, waitOptions)

	var contractRecord types.ContractStatusRecord
	err = workflow.ExecuteActivity(waitCtx, "WaitForContractApprovalActivity", types.WaitForContractApprovalInput{
		PropertyID: input.PropertyID,
	}).Get(waitCtx, &contractRecord)
	if err != nil {
		logger.Error("Wait for contract approval failed", "propertyID", input.PropertyID, "error", err)
		return nil, err
	}
	logger.Info("Contract approved, evaluating content",
		"propertyID", input.PropertyID,
		"contractID", contractRecord.ContractID,
		"contractStatus", contractRecord.ContractStatus)

	// Step 3: moderation and sentiment run in parallel. A failed branch is
	// captured as a failing verdict rather than failing the workflow: the
	// seller still gets a decision.
	moderationFuture := workflow.ExecuteActivity(ctx, "DetectImageModerationsActivity", types.DetectImageModerationsInput{
		PropertyID: input.PropertyID,
		Images:     input.Images,
	})
	sentimentFuture := workflow.ExecuteActivity(ctx, "DetectContentSentimentActivity", types.DetectContentSentimentInput{
		PropertyID:  input.PropertyID,
		Description: input.Description,
	})

	var moderation types.ImageModeration
	if err := moderationFuture.Get(ctx, &moderation); err != nil {
		logger.Warn("Image moderation failed, treating as flagged", "propertyID", input.PropertyID, "error", err)
		moderation = types.ImageModeration{ModerationLabels: []string{"ModerationUnavailable"}}
	}

	var sentiment types.ContentSentiment
	if err := sentimentFuture.Get(ctx, &sentiment); err != nil {
		logger.Warn("Sentiment detection failed, treating as unknown", "propertyID", input.PropertyID, "error", err)
		sentiment = types.ContentSentiment{Sentiment: types.SentimentUnknown}
	}

	// Step 4: combine verdicts and publish the result.
	result := validation.ValidateContent(moderation, sentiment)
	status := validation.StatusFor(result)

	err = workflow.ExecuteActivity(ctx, "PublishEvaluationCompletedActivity", types.PublishEvaluationCompletedInput{
		PropertyID:       input.PropertyID,
		EvaluationResult: status,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("Failed to publish evaluation result", "propertyID", input.PropertyID, "error", err)
		return nil, err
	}

	logger.Info("Property approval workflow completed",
		"propertyID", input.PropertyID,
		"result", status)

	return &types.ApprovalWorkflowOutput{
		PropertyID:       input.PropertyID,
		EvaluationResult: status,
	}, nil
}
