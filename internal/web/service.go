// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/logger"
)

var (
	webLog     *zerolog.Logger
	webLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	webLogOnce.Do(func() {
		l := logger.GetWebLogger()
		webLog = &l
	})
	return webLog
}

// ErrValidation is returned for malformed listing requests.
var ErrValidation = errors.New("invalid property request")

// ErrAlreadyRequested is returned when a listing's publication has already
// been requested or decided.
var ErrAlreadyRequested = errors.New("publication approval already requested")

// Notifier pushes evaluation results to connected clients. Implemented by
// the websocket hub; a nil notifier disables pushes.
type Notifier interface {
	NotifyEvaluation(event eventbus.PublicationEvaluationCompleted)
}

// AddPropertyInput is the payload for creating a listing.
type AddPropertyInput struct {
	Country     string   `json:"country"`
	City        string   `json:"city"`
	Street      string   `json:"street"`
	Number      int      `json:"number"`
	Description string   `json:"description"`
	Contract    string   `json:"contract"`
	Images      []string `json:"images"`
	ListPrice   int64    `json:"listprice"`
	Currency    string   `json:"currency"`
}

// Service implements the listings operations.
type Service struct {
	repo      *Repository
	publisher eventbus.Publisher
	notifier  Notifier
	now       func() time.Time
}

// NewService creates the web listings service.
func NewService(repo *Repository, publisher eventbus.Publisher, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

// AddProperty stores a new listing in NEW status.
func (s *Service) AddProperty(ctx context.Context, input AddPropertyInput) (*Property, error) {
	if input.Country == "" || input.City == "" || input.Street == "" || input.Number <= 0 {
		return nil, fmt.Errorf("%w: country, city, street and number are required", ErrValidation)
	}

	now := s.now().UTC()
	property := &Property{
		Country:     input.Country,
		City:        input.City,
		Street:      input.Street,
		Number:      input.Number,
		Description: input.Description,
		Contract:    input.Contract,
		Images:      input.Images,
		ListPrice:   input.ListPrice,
		Currency:    input.Currency,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Save(ctx, property); err != nil {
		return nil, err
	}

	getLog().Info().
		Str("property_id", property.PropertyID()).
		Msg("Added property listing")
	return property, nil
}

// ListProperties returns every listing in a city regardless of status.
func (s *Service) ListProperties(ctx context.Context, country, city string) ([]Property, error) {
	if country == "" || city == "" {
		return nil, fmt.Errorf("%w: country and city are required", ErrValidation)
	}
	return s.repo.List(ctx, country, city)
}

// GetProperty returns one listing by address.
func (s *Service) GetProperty(ctx context.Context, country, city, street string, number int) (*Property, error) {
	return s.repo.Get(ctx, country, city, street, number)
}

// Search returns approved listings in a city, optionally narrowed to one
// street. Buyers only ever see approved listings.
func (s *Service) Search(ctx context.Context, country, city, street string) ([]Property, error) {
	if country == "" || city == "" {
		return nil, fmt.Errorf("%w: country and city are required", ErrValidation)
	}

	properties, err := s.repo.List(ctx, country, city)
	if err != nil {
		return nil, err
	}

	return lo.Filter(properties, func(p Property, _ int) bool {
		if p.Status != StatusApproved {
			return false
		}
		return street == "" || strings.HasPrefix(slug(p.Street), slug(street))
	}), nil
}

// RequestApproval asks the approval workflow to evaluate a listing. Only a
// NEW listing may be submitted: a pending request is already in flight, and
// a decided one keeps its decision.
func (s *Service) RequestApproval(ctx context.Context, propertyID string) (*Property, error) {
	if !ValidPropertyID(propertyID) {
		return nil, fmt.Errorf("%w: malformed property id %q", ErrValidation, propertyID)
	}

	country, city, street, number, err := splitPropertyID(propertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	property, err := s.repo.Get(ctx, country, city, street, number)
	if err != nil {
		return nil, err
	}

	switch property.Status {
	case StatusPending, StatusApproved, StatusDeclined:
		getLog().Info().
			Str("property_id", propertyID).
			Str("status", property.Status).
			Msg("Publication approval already requested or decided")
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyRequested, property.Status)
	}

	// Mark PENDING before publishing: a running workflow must always have a
	// PENDING listing behind it. If the publish fails the status is rolled
	// back so the request can be retried.
	if err := s.repo.UpdateStatus(ctx, country, city, street, number, StatusPending); err != nil {
		return nil, err
	}

	event := eventbus.PublicationApprovalRequested{
		PropertyID: propertyID,
		Address: eventbus.Address{
			Country: property.Country,
			City:    property.City,
			Street:  property.Street,
			Number:  property.Number,
		},
		Contract:    property.Contract,
		Images:      property.Images,
		Description: property.Description,
		ListPrice:   property.ListPrice,
		Currency:    property.Currency,
		Status:      property.Status,
	}
	if err := s.publisher.Publish(ctx, eventbus.DetailPublicationApprovalRequested,
		[]string{propertyID}, event); err != nil {
		if revertErr := s.repo.UpdateStatus(ctx, country, city, street, number, StatusNew); revertErr != nil {
			getLog().Error().
				Err(revertErr).
				Str("property_id", propertyID).
				Msg("Failed to revert listing status after publish failure")
		}
		return nil, fmt.Errorf("failed to publish approval request: %w", err)
	}
	property.Status = StatusPending

	getLog().Info().
		Str("property_id", propertyID).
		Msg("Requested publication approval")
	return property, nil
}

// ApplyEvaluation consumes a PublicationEvaluationCompleted event and stores
// the result as the listing status.
func (s *Service) ApplyEvaluation(ctx context.Context, envelope eventbus.Envelope) error {
	var event eventbus.PublicationEvaluationCompleted
	if err := envelope.DecodeDetail(&event); err != nil {
		return fmt.Errorf("malformed evaluation event: %w", err)
	}

	country, city, street, number, err := splitPropertyID(event.PropertyID)
	if err != nil {
		return fmt.Errorf("evaluation event has malformed property id %q: %w", event.PropertyID, err)
	}

	if err := s.repo.UpdateStatus(ctx, country, city, street, number, event.EvaluationResult); err != nil {
		return err
	}

	getLog().Info().
		Str("property_id", event.PropertyID).
		Str("status", event.EvaluationResult).
		Msg("Stored publication evaluation result")

	if s.notifier != nil {
		s.notifier.NotifyEvaluation(event)
	}
	return nil
}

// splitPropertyID breaks <country>/<city>/<street>/<number> into components.
func splitPropertyID(id string) (country, city, street string, number int, err error) {
	parts := strings.Split(id, "/")
	if len(parts) != 4 {
		return "", "", "", 0, fmt.Errorf("expected 4 segments, got %d", len(parts))
	}
	number, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", "", "", 0, fmt.Errorf("non-numeric street number %q", parts[3])
	}
	return parts[0], parts[1], parts[2], number, nil
}
