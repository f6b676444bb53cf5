// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contracts implements the Contracts service: the system of record
// for sales contracts and the origin of ContractStatusChanged events.
package contracts

import (
	"time"

	"github.com/propertyflow/propertyflow/internal/eventbus"
)

// Status is the lifecycle status of a contract.
//
// APPROVED   The contract record is approved.
// CANCELLED  The contract record is cancelled or terminated.
// CLOSED     The contract record is closed; all terms and conditions are met.
// DRAFT      The contract is a draft.
// EXPIRED    The contract record's end date has passed.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
	StatusClosed    Status = "CLOSED"
	StatusExpired   Status = "EXPIRED"
)

// Contract is a sales contract for one property, keyed by the property's
// natural id (<country>/<city>/<street>/<number>).
type Contract struct {
	PropertyID     string           `gorm:"primaryKey;column:property_id" json:"property_id"`
	ContractID     string           `gorm:"column:contract_id;not null" json:"contract_id"`
	SellerName     string           `gorm:"column:seller_name" json:"seller_name"`
	Address        eventbus.Address `gorm:"column:address;serializer:json" json:"address"`
	Status         Status           `gorm:"column:contract_status;not null" json:"contract_status"`
	CreatedOn      time.Time        `gorm:"column:contract_created" json:"contract_created"`
	LastModifiedOn time.Time        `gorm:"column:contract_last_modified_on" json:"contract_last_modified_on"`
}

// TableName pins the table name for gorm.
func (Contract) TableName() string {
	return "contracts"
}
