// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package activities

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

type fakePublisher struct {
	detailTypes []string
	details     []any
	err         error
}

func (f *fakePublisher) Publish(ctx context.Context, detailType string, resources []string, detail any) error {
	if f.err != nil {
		return f.err
	}
	f.detailTypes = append(f.detailTypes, detailType)
	f.details = append(f.details, detail)
	return nil
}

func TestPublishEvaluationCompletedActivity(t *testing.T) {
	pub := &fakePublisher{}
	a := NewEventActivities(pub)

	err := a.PublishEvaluationCompletedActivity(context.Background(), types.PublishEvaluationCompletedInput{
		PropertyID:       "usa/anytown/main-street/111",
		EvaluationResult: "APPROVED",
	})
	require.NoError(t, err)

	require.Len(t, pub.detailTypes, 1)
	assert.Equal(t, eventbus.DetailPublicationEvaluationCompleted, pub.detailTypes[0])
	event := pub.details[0].(eventbus.PublicationEvaluationCompleted)
	assert.Equal(t, "APPROVED", event.EvaluationResult)
}

func TestPublishEvaluationCompletedActivity_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("fabric down")}
	a := NewEventActivities(pub)

	err := a.PublishEvaluationCompletedActivity(context.Background(), types.PublishEvaluationCompletedInput{
		PropertyID:       "usa/anytown/main-street/111",
		EvaluationResult: "DECLINED",
	})
	assert.Error(t, err)
}
