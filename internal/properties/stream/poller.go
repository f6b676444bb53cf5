// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
)

// Handler processes one mirror change record.
type Handler func(ctx context.Context, change mirror.ChangeRecord) error

// Poller tails the mirror change log. It reads batches past a persisted
// checkpoint in Seq order and hands each record to the handler. A record
// that keeps failing is parked in the dead-letter table and the checkpoint
// moves on: one poisoned change must not stall the stream.
type Poller struct {
	db      *gorm.DB
	handler Handler
	cfg     config.StreamConfig
}

// NewPoller creates a change-log poller.
func NewPoller(db *gorm.DB, cfg config.StreamConfig, handler Handler) *Poller {
	return &Poller{db: db, handler: handler, cfg: cfg}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	getLog().Info().
		Str("consumer", p.cfg.ConsumerName).
		Dur("poll_interval", p.cfg.PollInterval).
		Msg("Starting mirror change-log poller")

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			getLog().Info().Str("consumer", p.cfg.ConsumerName).Msg("Stopping mirror change-log poller")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				getLog().Error().Err(err).Msg("Change-log poll failed")
			}
		}
	}
}

// Poll drains everything past the checkpoint, one batch at a time.
func (p *Poller) Poll(ctx context.Context) error {
	for {
		n, err := p.pollBatch(ctx)
		if err != nil {
			return err
		}
		if n < p.cfg.BatchSize {
			return nil
		}
	}
}

func (p *Poller) pollBatch(ctx context.Context) (int, error) {
	checkpoint, err := p.loadCheckpoint(ctx)
	if err != nil {
		return 0, err
	}

	var batch []mirror.ChangeRecord
	err = p.db.WithContext(ctx).
		Where("seq > ?", checkpoint.Seq).
		Order("seq asc").
		Limit(p.cfg.BatchSize).
		Find(&batch).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read change log: %w", err)
	}

	for _, change := range batch {
		if err := p.handleWithRetry(ctx, change); err != nil {
			return 0, err
		}
		if err := p.saveCheckpoint(ctx, change.Seq); err != nil {
			return 0, err
		}
	}
	return len(batch), nil
}

// handleWithRetry gives the handler MaxAttempts tries, then dead-letters the
// change. Only context cancellation propagates as an error.
func (p *Poller) handleWithRetry(ctx context.Context, change mirror.ChangeRecord) error {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		lastErr = p.handler(ctx, change)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		getLog().Warn().Err(lastErr).
			Uint64("seq", change.Seq).
			Str("property_id", change.PropertyID).
			Int("attempt", attempt).
			Msg("Change handler failed")
	}

	getLog().Error().Err(lastErr).
		Uint64("seq", change.Seq).
		Str("property_id", change.PropertyID).
		Msg("Change exhausted retries, moving to dead letters")

	dead := DeadLetter{
		Seq:        change.Seq,
		PropertyID: change.PropertyID,
		OldImage:   change.OldImage,
		NewImage:   change.NewImage,
		Error:      lastErr.Error(),
		Attempts:   p.cfg.MaxAttempts,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.db.WithContext(ctx).Create(&dead).Error; err != nil {
		return fmt.Errorf("failed to dead-letter change %d: %w", change.Seq, err)
	}
	return nil
}

func (p *Poller) loadCheckpoint(ctx context.Context) (*Checkpoint, error) {
	var cp Checkpoint
	err := p.db.WithContext(ctx).
		Where("consumer = ?", p.cfg.ConsumerName).
		Limit(1).
		Find(&cp).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	cp.Consumer = p.cfg.ConsumerName
	return &cp, nil
}

func (p *Poller) saveCheckpoint(ctx context.Context, seq uint64) error {
	cp := Checkpoint{
		Consumer:  p.cfg.ConsumerName,
		Seq:       seq,
		UpdatedAt: time.Now().UTC(),
	}
	if err := p.db.WithContext(ctx).Save(&cp).Error; err != nil {
		return fmt.Errorf("failed to save checkpoint at %d: %w", seq, err)
	}
	return nil
}
