// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validation decides whether an evaluated listing may be published.
package validation

import (
	"github.com/samber/lo"

	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

// Content validation verdicts.
const (
	ResultPass = "PASS"
	ResultFail = "FAIL"
)

// Publication statuses derived from a verdict.
const (
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
)

// ValidateContent combines the moderation and sentiment verdicts. A listing
// passes only when no image carries a moderation label and the description
// sentiment is positive. The function is deterministic, so the workflow
// calls it inline rather than through an activity.
func ValidateContent(moderation types.ImageModeration, sentiment types.ContentSentiment) string {
	labels := lo.Compact(moderation.ModerationLabels)
	if len(labels) > 0 {
		return ResultFail
	}
	if sentiment.Sentiment != types.SentimentPositive {
		return ResultFail
	}
	return ResultPass
}

// StatusFor maps a verdict to the publication status stored on the listing.
func StatusFor(result string) string {
	if result == ResultPass {
		return StatusApproved
	}
	return StatusDeclined
}
