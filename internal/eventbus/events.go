// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventbus

import "time"

// Detail types carried on the event fabric. Each type gets its own stream;
// consumers subscribe to exactly the types they care about.
const (
	DetailContractStatusChanged          = "ContractStatusChanged"
	DetailPublicationApprovalRequested   = "PublicationApprovalRequested"
	DetailPublicationEvaluationCompleted = "PublicationEvaluationCompleted"
)

// Address is the structured address of a listing.
type Address struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street"`
	Number  int    `json:"number"`
}

// ContractStatusChanged is published by the contracts service whenever a
// contract is created or transitions status.
type ContractStatusChanged struct {
	PropertyID             string    `json:"property_id"`
	ContractID             string    `json:"contract_id"`
	ContractStatus         string    `json:"contract_status"`
	ContractLastModifiedOn time.Time `json:"contract_last_modified_on"`
}

// PublicationApprovalRequested is published by the web service when a seller
// asks for a listing to be published. It carries the full listing payload so
// the approval workflow needs no callback to the web store.
type PublicationApprovalRequested struct {
	PropertyID  string   `json:"property_id"`
	Address     Address  `json:"address"`
	SellerName  string   `json:"seller_name,omitempty"`
	Contract    string   `json:"contract,omitempty"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	ListPrice   int64    `json:"listprice"`
	Currency    string   `json:"currency"`
	Status      string   `json:"status,omitempty"`
}

// PublicationEvaluationCompleted is the approval workflow's terminal event.
// EvaluationResult is the listing status to store: APPROVED or DECLINED.
type PublicationEvaluationCompleted struct {
	PropertyID       string `json:"property_id"`
	EvaluationResult string `json:"evaluation_result"`
}
