// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eventbus is the cross-service event fabric: a thin
// publish/subscribe layer over Redis Streams with per-detail-type streams,
// durable consumer groups and dead-lettering.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/propertyflow/propertyflow/internal/config"
)

// Envelope wraps every event on the fabric.
type Envelope struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	DetailType string          `json:"detail_type"`
	Resources  []string        `json:"resources,omitempty"`
	Time       time.Time       `json:"time"`
	Detail     json.RawMessage `json:"detail"`
}

// DecodeDetail unmarshals the envelope's detail payload into out.
func (e *Envelope) DecodeDetail(out any) error {
	if err := json.Unmarshal(e.Detail, out); err != nil {
		return fmt.Errorf("failed to decode %s detail: %w", e.DetailType, err)
	}
	return nil
}

// Handler processes one delivered envelope. Returning an error leaves the
// message pending; it is retried until the configured delivery limit and then
// dead-lettered.
type Handler func(ctx context.Context, env Envelope) error

// Publisher publishes events onto the fabric.
type Publisher interface {
	Publish(ctx context.Context, detailType string, resources []string, detail any) error
}

// NewClient builds the Redis client used by publishers and subscribers.
func NewClient(cfg *config.EventBusConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// streamName returns the stream carrying one detail type.
func streamName(prefix, detailType string) string {
	return prefix + "." + strings.ToLower(detailType)
}

// dlqName returns the dead letter stream for a consumer group.
func dlqName(stream, group string) string {
	return stream + ".dlq." + group
}

// envelopeValues flattens an envelope into stream entry fields.
func envelopeValues(env Envelope) (map[string]any, error) {
	resources, err := json.Marshal(env.Resources)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resources: %w", err)
	}
	return map[string]any{
		"id":          env.ID,
		"source":      env.Source,
		"detail_type": env.DetailType,
		"resources":   string(resources),
		"time":        strconv.FormatInt(env.Time.UnixNano(), 10),
		"detail":      string(env.Detail),
	}, nil
}

// envelopeFromValues rebuilds an envelope from stream entry fields.
func envelopeFromValues(values map[string]any) (Envelope, error) {
	env := Envelope{}

	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}

	env.ID = str("id")
	env.Source = str("source")
	env.DetailType = str("detail_type")
	env.Detail = json.RawMessage(str("detail"))

	if raw := str("resources"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &env.Resources); err != nil {
			return env, fmt.Errorf("failed to unmarshal resources: %w", err)
		}
	}
	if raw := str("time"); raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return env, fmt.Errorf("failed to parse event time: %w", err)
		}
		env.Time = time.Unix(0, nanos).UTC()
	}

	if env.ID == "" || env.DetailType == "" {
		return env, fmt.Errorf("malformed envelope: missing id or detail_type")
	}
	return env, nil
}

// newEnvelope builds an envelope for publication.
func newEnvelope(source, detailType string, resources []string, detail any) (Envelope, error) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s detail: %w", detailType, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Source:     source,
		DetailType: detailType,
		Resources:  resources,
		Time:       time.Now().UTC(),
		Detail:     payload,
	}, nil
}
