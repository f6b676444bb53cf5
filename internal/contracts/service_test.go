// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/propertyflow/propertyflow/internal/eventbus"
)

// fakePublisher records published events.
type fakePublisher struct {
	detailTypes []string
	details     []any
	err         error
}

func (f *fakePublisher) Publish(ctx context.Context, detailType string, resources []string, detail any) error {
	if f.err != nil {
		return f.err
	}
	f.detailTypes = append(f.detailTypes, detailType)
	f.details = append(f.details, detail)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakePublisher) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Contract{}))

	pub := &fakePublisher{}
	return NewService(NewRepository(db), pub), pub
}

func validInput() CreateContractInput {
	return CreateContractInput{
		PropertyID: "usa/anytown/main-street/111",
		Address:    eventbus.Address{Country: "USA", City: "Anytown", Street: "Main Street", Number: 111},
		SellerName: "John Smith",
	}
}

func TestCreateContract(t *testing.T) {
	svc, pub := newTestService(t)

	contract, err := svc.CreateContract(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, contract.Status)
	assert.NotEmpty(t, contract.ContractID)
	assert.Equal(t, contract.CreatedOn, contract.LastModifiedOn)

	require.Len(t, pub.detailTypes, 1)
	assert.Equal(t, eventbus.DetailContractStatusChanged, pub.detailTypes[0])
	event := pub.details[0].(eventbus.ContractStatusChanged)
	assert.Equal(t, "DRAFT", event.ContractStatus)
	assert.Equal(t, contract.ContractID, event.ContractID)
}

func TestCreateContract_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	for _, input := range []CreateContractInput{
		{},
		{PropertyID: "usa/anytown/main-street/111"},
		{PropertyID: "usa/anytown/main-street/111", SellerName: "John Smith"},
	} {
		_, err := svc.CreateContract(context.Background(), input)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestApproveContract(t *testing.T) {
	svc, pub := newTestService(t)

	created, err := svc.CreateContract(context.Background(), validInput())
	require.NoError(t, err)

	approved, err := svc.ApproveContract(context.Background(), created.PropertyID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, created.ContractID, approved.ContractID)
	assert.True(t, approved.LastModifiedOn.After(created.CreatedOn) ||
		approved.LastModifiedOn.Equal(created.CreatedOn))

	require.Len(t, pub.detailTypes, 2)
	event := pub.details[1].(eventbus.ContractStatusChanged)
	assert.Equal(t, "APPROVED", event.ContractStatus)
}

func TestApproveContract_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ApproveContract(context.Background(), "usa/nowhere/elm-street/9")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestHandlers(t *testing.T) {
	svc, _ := newTestService(t)
	handlers := NewHandlers(svc)

	r := chi.NewRouter()
	r.Route("/api", handlers.Routes)

	post := func(method, path string, body any) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(method, path, bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Create
	rec := post(http.MethodPost, "/api/contracts", validInput())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Approve unknown property
	rec = post(http.MethodPut, "/api/contracts", map[string]string{"property_id": "usa/nowhere/elm-street/9"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Approve existing
	rec = post(http.MethodPut, "/api/contracts", map[string]string{"property_id": "usa/anytown/main-street/111"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var contract Contract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contract))
	assert.Equal(t, StatusApproved, contract.Status)

	// Missing fields
	rec = post(http.MethodPost, "/api/contracts", map[string]string{"seller_name": "John Smith"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
