// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package properties

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

type fakeStarter struct {
	inputs []types.ApprovalWorkflowInput
	err    error
}

func (f *fakeStarter) StartApproval(ctx context.Context, input types.ApprovalWorkflowInput) error {
	if f.err != nil {
		return f.err
	}
	f.inputs = append(f.inputs, input)
	return nil
}

func newTestService(t *testing.T) (*Service, *mirror.Store, *fakeStarter) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&mirror.Record{}, &mirror.ChangeRecord{}))

	store := mirror.NewStore(db)
	starter := &fakeStarter{}
	return NewService(store, starter), store, starter
}

func envelopeFor(t *testing.T, detailType string, detail any) eventbus.Envelope {
	payload, err := json.Marshal(detail)
	require.NoError(t, err)
	return eventbus.Envelope{
		ID:         "b7f5b1f6-8a22-4e07-a6bd-0d07b54bd00a",
		Source:     "test",
		DetailType: detailType,
		Time:       time.Now().UTC(),
		Detail:     payload,
	}
}

func TestHandleContractStatusChanged(t *testing.T) {
	svc, store, _ := newTestService(t)

	event := eventbus.ContractStatusChanged{
		PropertyID:             "usa/anytown/main-street/111",
		ContractID:             "25a238b4-3037-4b48-9a5c-88ec97fba9c8",
		ContractStatus:         mirror.StatusDraft,
		ContractLastModifiedOn: time.Now().UTC(),
	}
	envelope := envelopeFor(t, eventbus.DetailContractStatusChanged, event)

	require.NoError(t, svc.HandleContractStatusChanged(context.Background(), envelope))

	rec, err := store.Get(context.Background(), event.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, mirror.StatusDraft, rec.ContractStatus)
}

func TestHandleContractStatusChanged_MissingPropertyID(t *testing.T) {
	svc, _, _ := newTestService(t)

	envelope := envelopeFor(t, eventbus.DetailContractStatusChanged, eventbus.ContractStatusChanged{})
	assert.Error(t, svc.HandleContractStatusChanged(context.Background(), envelope))
}

func TestHandlePublicationApprovalRequested(t *testing.T) {
	svc, _, starter := newTestService(t)

	event := eventbus.PublicationApprovalRequested{
		PropertyID:  "usa/anytown/main-street/111",
		Address:     eventbus.Address{Country: "USA", City: "Anytown", Street: "Main Street", Number: 111},
		Images:      []string{"prop1_exterior.jpg"},
		Description: "A beautiful home",
	}
	envelope := envelopeFor(t, eventbus.DetailPublicationApprovalRequested, event)

	require.NoError(t, svc.HandlePublicationApprovalRequested(context.Background(), envelope))

	require.Len(t, starter.inputs, 1)
	assert.Equal(t, event.PropertyID, starter.inputs[0].PropertyID)
	assert.Equal(t, event.Images, starter.inputs[0].Images)
	assert.Equal(t, event.Description, starter.inputs[0].Description)
}

func TestHandlePublicationApprovalRequested_Malformed(t *testing.T) {
	svc, _, starter := newTestService(t)

	envelope := eventbus.Envelope{
		DetailType: eventbus.DetailPublicationApprovalRequested,
		Detail:     json.RawMessage(`{not json`),
	}
	assert.Error(t, svc.HandlePublicationApprovalRequested(context.Background(), envelope))
	assert.Empty(t, starter.inputs)
}
