// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/propertyflow/propertyflow/internal/config"
	"github.com/propertyflow/propertyflow/internal/logger"
)

var (
	busLog     *zerolog.Logger
	busLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	busLogOnce.Do(func() {
		l := logger.GetEventBusLogger()
		busLog = &l
	})
	return busLog
}

// RedisPublisher publishes envelopes onto per-detail-type streams.
type RedisPublisher struct {
	rdb    *redis.Client
	cfg    *config.EventBusConfig
	source string
}

// NewPublisher creates a publisher for one service namespace.
func NewPublisher(rdb *redis.Client, cfg *config.EventBusConfig, source string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, cfg: cfg, source: source}
}

// Publish appends the event to its detail-type stream.
func (p *RedisPublisher) Publish(ctx context.Context, detailType string, resources []string, detail any) error {
	env, err := newEnvelope(p.source, detailType, resources, detail)
	if err != nil {
		return err
	}

	values, err := envelopeValues(env)
	if err != nil {
		return err
	}

	stream := streamName(p.cfg.StreamPrefix, detailType)
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", detailType, err)
	}

	getLog().Debug().
		Str("detail_type", detailType).
		Str("event_id", env.ID).
		Strs("resources", resources).
		Msg("Published event")
	return nil
}

// Subscriber consumes one detail type with a durable consumer group.
// Handler failures leave the message pending; a reclaim pass retries pending
// messages and dead-letters those past the delivery limit.
type Subscriber struct {
	rdb      *redis.Client
	cfg      *config.EventBusConfig
	group    string
	consumer string
	stream   string
	handler  Handler
}

// NewSubscriber creates a subscriber for one (group, detailType) pair.
func NewSubscriber(rdb *redis.Client, cfg *config.EventBusConfig, group, consumer, detailType string, handler Handler) *Subscriber {
	return &Subscriber{
		rdb:      rdb,
		cfg:      cfg,
		group:    group,
		consumer: consumer,
		stream:   streamName(cfg.StreamPrefix, detailType),
		handler:  handler,
	}
}

// Run consumes until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	getLog().Info().
		Str("stream", s.stream).
		Str("group", s.group).
		Msg("Subscriber started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.retryPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			getLog().Error().Err(err).Str("stream", s.stream).Msg("Pending retry pass failed")
		}

		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    int64(10),
			Block:    s.cfg.BlockTimeout,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			getLog().Error().Err(err).Str("stream", s.stream).Msg("Read failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, str := range streams {
			for _, msg := range str.Messages {
				s.dispatch(ctx, msg, 1)
			}
		}
	}
}

// ensureGroup creates the consumer group if it doesn't exist yet. Starting at
// "0" means a group created after events were published still sees them.
func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", s.group, s.stream, err)
	}
	return nil
}

// isBusyGroup reports whether redis rejected group creation because the
// group already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// dispatch handles one delivery. Success acks; failure leaves it pending for
// the retry pass unless the delivery limit is already reached.
func (s *Subscriber) dispatch(ctx context.Context, msg redis.XMessage, delivery int64) {
	env, err := envelopeFromValues(msg.Values)
	if err != nil {
		// Malformed entries can never succeed; dead-letter them immediately.
		getLog().Error().Err(err).Str("stream", s.stream).Str("msg_id", msg.ID).Msg("Malformed envelope, dead-lettering")
		s.deadLetter(ctx, msg, err)
		return
	}

	if err := s.handler(ctx, env); err != nil {
		if delivery >= int64(s.cfg.MaxDeliveries) {
			getLog().Error().Err(err).
				Str("event_id", env.ID).
				Int64("deliveries", delivery).
				Msg("Delivery limit reached, dead-lettering event")
			s.deadLetter(ctx, msg, err)
			return
		}
		getLog().Warn().Err(err).
			Str("event_id", env.ID).
			Int64("delivery", delivery).
			Msg("Handler failed, leaving event pending")
		return
	}

	if err := s.rdb.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil {
		getLog().Error().Err(err).Str("msg_id", msg.ID).Msg("Failed to ack event")
	}
}

// retryPending claims messages that previous deliveries failed to ack and
// re-dispatches them with their delivery count.
func (s *Subscriber) retryPending(ctx context.Context) error {
	pending, err := s.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.stream,
		Group:  s.group,
		Start:  "-",
		End:    "+",
		Count:  int64(50),
	}).Result()
	if err != nil || len(pending) == 0 {
		return err
	}

	for _, p := range pending {
		// Fresh failures get a grace period before redelivery.
		if p.Idle < s.cfg.BlockTimeout {
			continue
		}

		claimed, err := s.rdb.XClaim(ctx, &redis.XClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.cfg.BlockTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		for _, msg := range claimed {
			s.dispatch(ctx, msg, p.RetryCount)
		}
	}
	return nil
}

// deadLetter copies the message onto the group's DLQ stream and acks the
// original. DLQ'd events require manual replay.
func (s *Subscriber) deadLetter(ctx context.Context, msg redis.XMessage, cause error) {
	values := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["error"] = cause.Error()
	values["original_id"] = msg.ID

	if err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: dlqName(s.stream, s.group),
		Values: values,
	}).Err(); err != nil {
		getLog().Error().Err(err).Str("msg_id", msg.ID).Msg("Failed to write dead letter")
		return
	}
	if err := s.rdb.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil {
		getLog().Error().Err(err).Str("msg_id", msg.ID).Msg("Failed to ack dead-lettered event")
	}
}
