// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package activities

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

// ModerationClient screens listing images for objectionable content.
type ModerationClient interface {
	DetectModerationLabels(ctx context.Context, images []string) ([]string, error)
}

// SentimentClient classifies the sentiment of a listing description.
type SentimentClient interface {
	DetectSentiment(ctx context.Context, text string) (string, error)
}

// moderationKeywords maps an image-reference substring to the moderation
// label it produces. A stand-in for a real vision service: image names in
// this system carry their content hints.
var moderationKeywords = map[string]string{
	"weapon":   "Weapons",
	"violence": "Violence",
	"nudity":   "Explicit Nudity",
	"drugs":    "Drugs",
	"gambling": "Gambling",
}

// StaticModerationClient derives moderation labels from image references.
type StaticModerationClient struct{}

// DetectModerationLabels returns one label per flagged image keyword.
func (StaticModerationClient) DetectModerationLabels(ctx context.Context, images []string) ([]string, error) {
	var labels []string
	for keyword, label := range moderationKeywords {
		flagged := lo.SomeBy(images, func(img string) bool {
			return strings.Contains(strings.ToLower(img), keyword)
		})
		if flagged {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// negativeWords fails a description outright; mutedWords only drags it down
// to neutral.
var (
	negativeWords = []string{"terrible", "awful", "horrible", "dump", "avoid", "worst"}
	mutedWords    = []string{"small", "dated", "noisy", "needs work"}
)

// StaticSentimentClient classifies a description by keyword lexicon.
type StaticSentimentClient struct{}

// DetectSentiment returns POSITIVE, NEUTRAL, or NEGATIVE.
func (StaticSentimentClient) DetectSentiment(ctx context.Context, text string) (string, error) {
	lowered := strings.ToLower(text)

	containsAny := func(words []string) bool {
		return lo.SomeBy(words, func(w string) bool {
			return strings.Contains(lowered, w)
		})
	}
	if containsAny(negativeWords) {
		return types.SentimentNegative, nil
	}
	if containsAny(mutedWords) {
		return types.SentimentNeutral, nil
	}
	return types.SentimentPositive, nil
}

// DetectionActivities runs the content checks on listing media and text.
type DetectionActivities struct {
	moderation ModerationClient
	sentiment  SentimentClient
}

// NewDetectionActivities creates the detection activity set.
func NewDetectionActivities(moderation ModerationClient, sentiment SentimentClient) *DetectionActivities {
	return &DetectionActivities{moderation: moderation, sentiment: sentiment}
}

// DetectImageModerationsActivity screens every listing image.
func (a *DetectionActivities) DetectImageModerationsActivity(ctx context.Context, input types.DetectImageModerationsInput) (*types.ImageModeration, error) {
	labels, err := a.moderation.DetectModerationLabels(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	getLog().Info().
		Str("property_id", input.PropertyID).
		Int("images", len(input.Images)).
		Strs("labels", labels).
		Msg("Image moderation completed")
	return &types.ImageModeration{ModerationLabels: labels}, nil
}

// DetectContentSentimentActivity classifies the listing description.
func (a *DetectionActivities) DetectContentSentimentActivity(ctx context.Context, input types.DetectContentSentimentInput) (*types.ContentSentiment, error) {
	sentiment, err := a.sentiment.DetectSentiment(ctx, input.Description)
	if err != nil {
		return nil, err
	}

	getLog().Info().
		Str("property_id", input.PropertyID).
		Str("sentiment", sentiment).
		Msg("Content sentiment completed")
	return &types.ContentSentiment{Sentiment: sentiment}, nil
}
