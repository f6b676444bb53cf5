// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name       string
		moderation types.ImageModeration
		sentiment  types.ContentSentiment
		want       string
	}{
		{
			name:       "clean images and positive sentiment pass",
			moderation: types.ImageModeration{},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentPositive},
			want:       ResultPass,
		},
		{
			name:       "moderation label fails",
			moderation: types.ImageModeration{ModerationLabels: []string{"Weapons"}},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentPositive},
			want:       ResultFail,
		},
		{
			name:       "neutral sentiment fails",
			moderation: types.ImageModeration{},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentNeutral},
			want:       ResultFail,
		},
		{
			name:       "negative sentiment fails",
			moderation: types.ImageModeration{},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentNegative},
			want:       ResultFail,
		},
		{
			name:       "unknown sentiment fails",
			moderation: types.ImageModeration{},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentUnknown},
			want:       ResultFail,
		},
		{
			name:       "both failing fails",
			moderation: types.ImageModeration{ModerationLabels: []string{"Violence", "Weapons"}},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentNegative},
			want:       ResultFail,
		},
		{
			name:       "empty label strings are ignored",
			moderation: types.ImageModeration{ModerationLabels: []string{""}},
			sentiment:  types.ContentSentiment{Sentiment: types.SentimentPositive},
			want:       ResultPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateContent(tt.moderation, tt.sentiment))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusApproved, StatusFor(ResultPass))
	assert.Equal(t, StatusDeclined, StatusFor(ResultFail))
	assert.Equal(t, StatusDeclined, StatusFor("anything else"))
}
