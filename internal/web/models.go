// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package web is the seller-facing listings service: it stores property
// listings, hands publication requests to the approval workflow, and serves
// approved listings to buyers.
package web

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Listing publication statuses.
const (
	StatusNew      = "NEW"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
)

// propertyIDPattern validates the canonical listing identifier
// <country>/<city>/<street>/<number>, all lowercase and hyphenated.
var propertyIDPattern = regexp.MustCompile(`^[a-z-]+/[a-z-]+/[a-z][a-z0-9-]*/[0-9-]+$`)

// ValidPropertyID reports whether id is a well-formed listing identifier.
func ValidPropertyID(id string) bool {
	return propertyIDPattern.MatchString(id)
}

// Property is one listing. The composite key groups listings by location:
// the partition key is country and city, the sort key street and number.
type Property struct {
	PK          string    `gorm:"primaryKey;column:pk" json:"-"`
	SK          string    `gorm:"primaryKey;column:sk" json:"-"`
	Country     string    `gorm:"column:country" json:"country"`
	City        string    `gorm:"column:city" json:"city"`
	Street      string    `gorm:"column:street" json:"street"`
	Number      int       `gorm:"column:number" json:"number"`
	Description string    `gorm:"column:description" json:"description"`
	Contract    string    `gorm:"column:contract" json:"contract,omitempty"`
	Images      []string  `gorm:"column:images;serializer:json" json:"images"`
	ListPrice   int64     `gorm:"column:listprice" json:"listprice"`
	Currency    string    `gorm:"column:currency" json:"currency"`
	Status      string    `gorm:"column:status" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name for gorm.
func (Property) TableName() string {
	return "properties"
}

// PropertyID returns the canonical listing identifier.
func (p *Property) PropertyID() string {
	return fmt.Sprintf("%s/%s/%s/%d",
		slug(p.Country), slug(p.City), slug(p.Street), p.Number)
}

// Keys returns the composite storage key for a listing's location.
func Keys(country, city, street string, number int) (pk, sk string) {
	pk = fmt.Sprintf("PROPERTY#%s#%s", slug(country), slug(city))
	sk = fmt.Sprintf("%s#%d", slug(street), number)
	return pk, sk
}

// PartitionKey returns the key shared by every listing in a city.
func PartitionKey(country, city string) string {
	return fmt.Sprintf("PROPERTY#%s#%s", slug(country), slug(city))
}

// slug lowercases and hyphenates an address component.
func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
