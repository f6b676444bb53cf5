// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream consumes the mirror change log in order and resumes
// approval workflows that were paused waiting for contract approval.
package stream

import (
	"time"

	"github.com/propertyflow/propertyflow/internal/properties/mirror"
)

// Checkpoint records how far a named consumer has read the change log.
// Restart resumes from Seq, so already-handled changes are replayed at most
// once and the handler must tolerate replays.
type Checkpoint struct {
	Consumer  string    `gorm:"primaryKey;column:consumer" json:"consumer"`
	Seq       uint64    `gorm:"column:seq" json:"seq"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name for gorm.
func (Checkpoint) TableName() string {
	return "stream_checkpoints"
}

// DeadLetter is a change record that exhausted its handler attempts. It keeps
// the full images so the failure can be replayed by hand.
type DeadLetter struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Seq        uint64       `gorm:"column:seq" json:"seq"`
	PropertyID string       `gorm:"column:property_id" json:"property_id"`
	OldImage   mirror.Image `gorm:"column:old_image;serializer:json" json:"old_image,omitempty"`
	NewImage   mirror.Image `gorm:"column:new_image;serializer:json" json:"new_image"`
	Error      string       `gorm:"column:error" json:"error"`
	Attempts   int          `gorm:"column:attempts" json:"attempts"`
	CreatedAt  time.Time    `gorm:"column:created_at" json:"created_at"`
}

// TableName pins the table name for gorm.
func (DeadLetter) TableName() string {
	return "stream_dead_letters"
}
