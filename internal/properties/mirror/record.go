// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mirror holds the Properties-domain copy of each contract's status:
// a read-optimized record per property, written by two independent actors.
// The contract event handler owns the contract columns; the approval
// workflow's wait step owns the resume-token column. Writers never touch the
// other's columns, so updates are column-scoped rather than whole-record
// puts.
package mirror

import (
	"time"
)

// Contract status values mirrored from the contracts service.
const (
	StatusDraft     = "DRAFT"
	StatusApproved  = "APPROVED"
	StatusCancelled = "CANCELLED"
	StatusClosed    = "CLOSED"
	StatusExpired   = "EXPIRED"
)

// Record is one property's mirrored contract status. WaitApprovedTaskToken
// is present only while an approval workflow is paused waiting for this
// property's contract to be approved; at most one token is live per property.
type Record struct {
	PropertyID             string    `gorm:"primaryKey;column:property_id" json:"property_id"`
	ContractID             string    `gorm:"column:contract_id" json:"contract_id"`
	ContractStatus         string    `gorm:"column:contract_status" json:"contract_status"`
	ContractLastModifiedOn time.Time `gorm:"column:contract_last_modified_on" json:"contract_last_modified_on"`
	WaitApprovedTaskToken  string    `gorm:"column:wait_approved_task_token" json:"wait_approved_task_token,omitempty"`
}

// TableName pins the table name for gorm.
func (Record) TableName() string {
	return "contract_status_mirror"
}

// Image is the loose field map used in change-stream records. A mutation's
// new image carries only the fields that writer owns; the old image is the
// full record before the write. Missing fields are therefore meaningful:
// the stream consumer merges old and new to see current state.
type Image map[string]any

// Image field keys.
const (
	FieldPropertyID             = "property_id"
	FieldContractID             = "contract_id"
	FieldContractStatus         = "contract_status"
	FieldContractLastModifiedOn = "contract_last_modified_on"
	FieldWaitApprovedTaskToken  = "wait_approved_task_token"
)

// FullImage captures every populated field of a record.
func FullImage(r *Record) Image {
	if r == nil {
		return nil
	}
	img := Image{
		FieldPropertyID:             r.PropertyID,
		FieldContractID:             r.ContractID,
		FieldContractStatus:         r.ContractStatus,
		FieldContractLastModifiedOn: r.ContractLastModifiedOn.Format(time.RFC3339Nano),
	}
	if r.WaitApprovedTaskToken != "" {
		img[FieldWaitApprovedTaskToken] = r.WaitApprovedTaskToken
	}
	return img
}

func (img Image) str(key string) string {
	v, _ := img[key].(string)
	return v
}

// PropertyID returns the image's property id, if present.
func (img Image) PropertyID() string {
	return img.str(FieldPropertyID)
}

// ContractID returns the image's contract id, if present.
func (img Image) ContractID() string {
	return img.str(FieldContractID)
}

// ContractStatus returns the image's contract status, if present.
func (img Image) ContractStatus() string {
	return img.str(FieldContractStatus)
}

// ContractLastModifiedOn returns the image's contract modification
// timestamp, if present, as the RFC 3339 string it was captured as.
func (img Image) ContractLastModifiedOn() string {
	return img.str(FieldContractLastModifiedOn)
}

// TaskToken returns the image's resume token, if present.
func (img Image) TaskToken() string {
	return img.str(FieldWaitApprovedTaskToken)
}

// ChangeRecord is one entry of the mirror's change stream: an append-only log
// written in the same transaction as every mirror mutation. Seq gives a total
// order; per-property entries are therefore in write order.
type ChangeRecord struct {
	Seq        uint64    `gorm:"primaryKey;autoIncrement;column:seq" json:"seq"`
	PropertyID string    `gorm:"column:property_id;index" json:"property_id"`
	OldImage   Image     `gorm:"column:old_image;serializer:json" json:"old_image,omitempty"`
	NewImage   Image     `gorm:"column:new_image;serializer:json" json:"new_image"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName pins the table name for gorm.
func (ChangeRecord) TableName() string {
	return "mirror_changes"
}
