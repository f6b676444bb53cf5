// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workers runs the Temporal worker hosting the approval workflow.
package workers

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/activities"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/workflows"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetTemporalLogger().With().Str("component", "worker").Logger()
		log = &l
	})
	return log
}

// Worker hosts the approval workflow and its activities.
type Worker struct {
	temporalClient      client.Client
	taskQueue           string
	worker              worker.Worker
	contractActivities  *activities.ContractActivities
	detectionActivities *activities.DetectionActivities
	eventActivities     *activities.EventActivities
	config              *config.AppConfig
	mu                  sync.Mutex
	stopped             bool
}

// NewWorker creates a new Temporal worker
func NewWorker(
	temporalClient client.Client,
	cfg *config.AppConfig,
	store *mirror.Store,
	publisher eventbus.Publisher,
	moderation activities.ModerationClient,
	sentiment activities.SentimentClient,
) *Worker {
	return &Worker{
		temporalClient:      temporalClient,
		taskQueue:           cfg.Temporal.TaskQueue,
		contractActivities:  activities.NewContractActivities(store),
		detectionActivities: activities.NewDetectionActivities(moderation, sentiment),
		eventActivities:     activities.NewEventActivities(publisher),
		config:              cfg,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	getLog().Info().Str("task_queue", w.taskQueue).Msg("Starting Temporal worker")

	if w.stopped {
		return fmt.Errorf("cannot restart a stopped worker - create a new worker instance")
	}
	if w.worker != nil {
		getLog().Info().Msg("Worker already started")
		return nil
	}

	workerOptions := worker.Options{
		MaxConcurrentActivityExecutionSize:     w.config.Temporal.Worker.MaxConcurrentActivityExecutions,
		MaxConcurrentWorkflowTaskExecutionSize: w.config.Temporal.Worker.MaxConcurrentWorkflows,
		WorkerActivitiesPerSecond:              w.config.Temporal.Worker.ActivitiesPerSecond,
	}

	w.worker = worker.New(w.temporalClient, w.taskQueue, workerOptions)

	w.worker.RegisterWorkflowWithOptions(workflows.ApprovalWorkflow, workflow.RegisterOptions{
		Name: workflows.ApprovalWorkflowName,
	})

	w.worker.RegisterActivity(w.contractActivities.CheckContractExistsActivity)
	w.worker.RegisterActivity(w.contractActivities.WaitForContractApprovalActivity)
	w.worker.RegisterActivity(w.detectionActivities.DetectImageModerationsActivity)
	w.worker.RegisterActivity(w.detectionActivities.DetectContentSentimentActivity)
	w.worker.RegisterActivity(w.eventActivities.PublishEvaluationCompletedActivity)

	workerInstance := w.worker

	go func() {
		if err := workerInstance.Run(worker.InterruptCh()); err != nil {
			getLog().Error().Err(err).Msg("Worker stopped with error")
		}
	}()

	getLog().Info().Msg("Temporal worker started successfully")
	return nil
}

// Stop stops the worker gracefully
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker != nil {
		getLog().Info().Msg("Stopping Temporal worker gracefully...")
		w.worker.Stop()
		w.stopped = true
		w.worker = nil
		getLog().Info().Msg("Temporal worker stopped")
	}
	return nil
}

// GetRegisteredActivities returns a list of registered activity names (for testing)
func (w *Worker) GetRegisteredActivities() []string {
	return []string{
		"CheckContractExistsActivity",
		"WaitForContractApprovalActivity",
		"DetectImageModerationsActivity",
		"DetectContentSentimentActivity",
		"PublishEvaluationCompletedActivity",
	}
}

// GetRegisteredWorkflows returns a list of registered workflow names (for testing)
func (w *Worker) GetRegisteredWorkflows() []string {
	return []string{
		workflows.ApprovalWorkflowName,
	}
}
