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
	"github.com/propertyflow/propertyflow/internal/server"
	"github.com/propertyflow/propertyflow/internal/telemetry"
	"github.com/propertyflow/propertyflow/internal/web"
)

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
	mainLog.Info().Msg("Starting propertyflow web service")

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
	publisher := eventbus.NewPublisher(rdb, &cfg.EventBus, cfg.Web.ServiceNamespace)

	registry := server.NewClientRegistry()
	service := web.NewService(web.NewRepository(db.DB()), publisher, registry)

	if cfg.Web.SeedFile != "" {
		count, err := service.SeedFromFile(ctx, cfg.Web.SeedFile)
		if err != nil {
			mainLog.Error().Err(err).Msg("Error seeding listings")
			os.Exit(1)
		}
		mainLog.Info().Int("count", count).Msg("Seeded listings")
	}

	// Evaluation results come back over the event fabric.
	evaluationSub := eventbus.NewSubscriber(rdb, &cfg.EventBus, "web", consumerName(),
		eventbus.DetailPublicationEvaluationCompleted, service.ApplyEvaluation)
	go func() {
		if err := evaluationSub.Run(ctx); err != nil && ctx.Err() == nil {
			mainLog.Error().Err(err).Msg("Evaluation subscriber stopped")
		}
	}()

	handlers := web.NewHandlers(service)
	srv := server.New(&cfg.Server, registry, handlers.Routes)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
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

	mainLog.Info().Msg("Web service shut down")
}
