// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package types holds the inputs and outputs shared between the approval
// workflow, its activities, and the clients that start or resume it.
package types

import (
	"github.com/propertyflow/propertyflow/internal/eventbus"
)

// ApprovalWorkflowInput is the full listing payload under evaluation. It is
// lifted straight from the PublicationApprovalRequested event so the workflow
// never reads the web store.
type ApprovalWorkflowInput struct {
	PropertyID  string           `json:"property_id"`
	Address     eventbus.Address `json:"address"`
	Images      []string         `json:"images"`
	Description string           `json:"description"`
}

// ApprovalWorkflowOutput is the workflow result. A declined listing is a
// successful evaluation, not a workflow failure.
type ApprovalWorkflowOutput struct {
	PropertyID       string `json:"property_id"`
	EvaluationResult string `json:"evaluation_result"`
}

// CheckContractExistsInput asks whether a property has a known contract.
type CheckContractExistsInput struct {
	PropertyID string `json:"property_id"`
}

// WaitForContractApprovalInput parks the workflow until the property's
// contract is approved.
type WaitForContractApprovalInput struct {
	PropertyID string `json:"property_id"`
}

// ContractStatusRecord is the wait step's result: the mirrored contract
// record as the synchronizer saw it at the moment the contract became
// approved.
type ContractStatusRecord struct {
	PropertyID             string `json:"property_id"`
	ContractID             string `json:"contract_id"`
	ContractStatus         string `json:"contract_status"`
	ContractLastModifiedOn string `json:"contract_last_modified_on"`
}

// DetectImageModerationsInput carries the listing image references.
type DetectImageModerationsInput struct {
	PropertyID string   `json:"property_id"`
	Images     []string `json:"images"`
}

// ImageModeration is the moderation verdict over all listing images. An
// empty label list means nothing objectionable was found.
type ImageModeration struct {
	ModerationLabels []string `json:"moderation_labels"`
}

// DetectContentSentimentInput carries the listing description.
type DetectContentSentimentInput struct {
	PropertyID  string `json:"property_id"`
	Description string `json:"description"`
}

// Sentiment values produced by content analysis.
const (
	SentimentPositive = "POSITIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentNegative = "NEGATIVE"
	SentimentUnknown  = "UNKNOWN"
)

// ContentSentiment is the sentiment verdict for a listing description.
type ContentSentiment struct {
	Sentiment string `json:"sentiment"`
}

// PublishEvaluationCompletedInput publishes the workflow's terminal event.
type PublishEvaluationCompletedInput struct {
	PropertyID       string `json:"property_id"`
	EvaluationResult string `json:"evaluation_result"`
}
