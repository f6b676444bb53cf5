// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package temporal wraps the Temporal client for the properties service.
package temporal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/stream"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/workflows"
)

var (
	temporalLog     *zerolog.Logger
	temporalLogOnce sync.Once
)

func getTemporalLog() *zerolog.Logger {
	temporalLogOnce.Do(func() {
		l := logger.GetTemporalLogger().With().Str("component", "client").Logger()
		temporalLog = &l
	})
	return temporalLog
}

// Client wraps the Temporal client and provides the approval operations.
type Client struct {
	temporalClient client.Client
	cfg            config.TemporalConfig
}

// NewClient creates a new Temporal client wrapper
func NewClient(cfg config.TemporalConfig) (*Client, error) {
	options := client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    logger.GetTemporalLogAdapter("temporal"),
	}

	temporalClient, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	getTemporalLog().Info().Msgf("Connected to Temporal at %s, namespace: %s", cfg.HostPort, cfg.Namespace)

	return &Client{
		temporalClient: temporalClient,
		cfg:            cfg,
	}, nil
}

// GetTemporalClient returns the underlying Temporal client
func (c *Client) GetTemporalClient() client.Client {
	return c.temporalClient
}

// GetTaskQueue returns the task queue name
func (c *Client) GetTaskQueue() string {
	return c.cfg.TaskQueue
}

// StartApprovalWorkflow starts an approval workflow for a publication
// request. Every request gets its own run: the workflow ID embeds a fresh
// UUID alongside the property ID, so a second request for the same property
// starts a second run whose wait-step token supersedes the first.
func (c *Client) StartApprovalWorkflow(ctx context.Context, input types.ApprovalWorkflowInput) (client.WorkflowRun, error) {
	workflowID := fmt.Sprintf("property-approval/%s/%s", input.PropertyID, uuid.NewString())

	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.cfg.TaskQueue,
		// Zero means no run timeout: the wait on contract approval is
		// allowed to outlast any deadline.
		WorkflowRunTimeout:  c.cfg.Workflow.WorkflowRunTimeout,
		WorkflowTaskTimeout: c.cfg.Workflow.WorkflowTaskTimeout,
	}

	run, err := c.temporalClient.ExecuteWorkflow(ctx, options, workflows.ApprovalWorkflowName, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start approval workflow: %w", err)
	}

	getTemporalLog().Info().
		Str("workflow_id", workflowID).
		Str("property_id", input.PropertyID).
		Msg("Started approval workflow")
	return run, nil
}

// StartApproval starts an approval workflow without tracking the run handle.
// This is the form the event subscription uses.
func (c *Client) StartApproval(ctx context.Context, input types.ApprovalWorkflowInput) error {
	_, err := c.StartApprovalWorkflow(ctx, input)
	return err
}

// ResumeApproval completes the paused wait activity identified by taskToken,
// delivering the merged contract record as the activity result. A token
// whose workflow run is gone yields ErrTokenNoLongerValid; completing twice
// with the same token is therefore safe.
func (c *Client) ResumeApproval(ctx context.Context, taskToken string, record mirror.Image) error {
	token, err := base64.StdEncoding.DecodeString(taskToken)
	if err != nil {
		return fmt.Errorf("malformed resume token: %w", err)
	}

	result := types.ContractStatusRecord{
		PropertyID:             record.PropertyID(),
		ContractID:             record.ContractID(),
		ContractStatus:         record.ContractStatus(),
		ContractLastModifiedOn: record.ContractLastModifiedOn(),
	}

	err = c.temporalClient.CompleteActivity(ctx, token, result, nil)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", stream.ErrTokenNoLongerValid, err.Error())
		}
		return fmt.Errorf("failed to complete wait activity: %w", err)
	}

	getTemporalLog().Debug().Msg("Completed paused wait activity")
	return nil
}

// Close closes the Temporal client connection
func (c *Client) Close() error {
	if c.temporalClient != nil {
		c.temporalClient.Close()
		getTemporalLog().Info().Msg("Temporal client closed")
	}
	return nil
}
