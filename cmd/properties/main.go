// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/database"
	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/stream"
	ptemporal "github.com/propertyflow/propertyflow/internal/properties/temporal"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/activities"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/workers"
	"github.com/propertyflow/propertyflow/internal/telemetry"
)

// consumerName identifies this process inside the event bus consumer group.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		return uuid.NewString()
	}
	return host
}

func main() {
	cfg, err := config.NewConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting propertyflow properties service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error setting up tracing")
		os.Exit(1)
	}

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error connecting to database")
		os.Exit(1)
	}
	if err := db.ValidateSchema(); err != nil {
		mainLog.Error().Err(err).Msg("Database schema validation failed")
		os.Exit(1)
	}

	rdb := eventbus.NewClient(&cfg.EventBus)
	publisher := eventbus.NewPublisher(rdb, &cfg.EventBus, "propertyflow.properties")

	store := mirror.NewStore(db.DB())

	temporalClient, err := ptemporal.NewClient(cfg.Temporal)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error connecting to Temporal")
		os.Exit(1)
	}

	worker := workers.NewWorker(
		temporalClient.GetTemporalClient(),
		cfg,
		store,
		publisher,
		activities.StaticModerationClient{},
		activities.StaticSentimentClient{},
	)
	if err := worker.Start(); err != nil {
		mainLog.Error().Err(err).Msg("Error starting Temporal worker")
		os.Exit(1)
	}

	service := properties.NewService(store, temporalClient)
	consumer := consumerName()

	// Event subscriptions: contract mirror updates and publication requests.
	contractSub := eventbus.NewSubscriber(rdb, &cfg.EventBus, "properties", consumer,
		eventbus.DetailContractStatusChanged, service.HandleContractStatusChanged)
	approvalSub := eventbus.NewSubscriber(rdb, &cfg.EventBus, "properties", consumer,
		eventbus.DetailPublicationApprovalRequested, service.HandlePublicationApprovalRequested)

	go func() {
		if err := contractSub.Run(ctx); err != nil && ctx.Err() == nil {
			mainLog.Error().Err(err).Msg("Contract event subscriber stopped")
		}
	}()
	go func() {
		if err := approvalSub.Run(ctx); err != nil && ctx.Err() == nil {
			mainLog.Error().Err(err).Msg("Approval request subscriber stopped")
		}
	}()

	// Change-stream synchronizer: resumes workflows paused on contract
	// approval.
	synchronizer := stream.NewSynchronizer(temporalClient)
	poller := stream.NewPoller(db.DB(), cfg.Stream, synchronizer.HandleChange)
	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			mainLog.Error().Err(err).Msg("Change-log poller stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	mainLog.Info().Msgf("Received signal %v, shutting down...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := worker.Stop(); err != nil {
		mainLog.Error().Err(err).Msg("Error stopping Temporal worker")
	}
	if err := temporalClient.Close(); err != nil {
		mainLog.Error().Err(err).Msg("Error closing Temporal client")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down tracing")
	}
	if err := rdb.Close(); err != nil {
		mainLog.Error().Err(err).Msg("Error closing event bus client")
	}
	if err := db.Close(); err != nil {
		mainLog.Error().Err(err).Msg("Error closing database")
	}

	mainLog.Info().Msg("Properties service shut down")
}
