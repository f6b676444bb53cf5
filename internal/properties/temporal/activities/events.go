// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package activities

import (
	"context"
	"fmt"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

// EventActivities publishes workflow lifecycle events onto the event fabric.
type EventActivities struct {
	publisher eventbus.Publisher
}

// NewEventActivities creates the event activity set.
func NewEventActivities(publisher eventbus.Publisher) *EventActivities {
	return &EventActivities{publisher: publisher}
}

// PublishEvaluationCompletedActivity emits the workflow's terminal event.
// The web service consumes it and stores the result as the listing status.
func (a *EventActivities) PublishEvaluationCompletedActivity(ctx context.Context, input types.PublishEvaluationCompletedInput) error {
	event := eventbus.PublicationEvaluationCompleted{
		PropertyID:       input.PropertyID,
		EvaluationResult: input.EvaluationResult,
	}
	if err := a.publisher.Publish(ctx, eventbus.DetailPublicationEvaluationCompleted,
		[]string{input.PropertyID}, event); err != nil {
		return fmt.Errorf("failed to publish evaluation completed: %w", err)
	}

	getLog().Info().
		Str("property_id", input.PropertyID).
		Str("evaluation_result", input.EvaluationResult).
		Msg("Published publication evaluation completed")
	return nil
}
