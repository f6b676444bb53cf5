// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/propertyflow/propertyflow/internal/eventbus"
)

func newTestStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Record{}, &ChangeRecord{}))
	return NewStore(db)
}

func statusEvent(status string) eventbus.ContractStatusChanged {
	return eventbus.ContractStatusChanged{
		PropertyID:             "usa/anytown/main-street/111",
		ContractID:             "25a238b4-3037-4b48-9a5c-88ec97fba9c8",
		ContractStatus:         status,
		ContractLastModifiedOn: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func changes(t *testing.T, s *Store) []ChangeRecord {
	var out []ChangeRecord
	require.NoError(t, s.db.Order("seq asc").Find(&out).Error)
	return out
}

func TestApplyContractStatus_Insert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.ApplyContractStatus(context.Background(), statusEvent(StatusDraft)))

	rec, err := store.Get(context.Background(), "usa/anytown/main-street/111")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, rec.ContractStatus)
	assert.Empty(t, rec.WaitApprovedTaskToken)

	log := changes(t, store)
	require.Len(t, log, 1)
	assert.Nil(t, log[0].OldImage)
	assert.Equal(t, StatusDraft, log[0].NewImage.ContractStatus())
}

func TestApplyContractStatus_PreservesToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyContractStatus(ctx, statusEvent(StatusDraft)))
	require.NoError(t, store.SetResumeToken(ctx, "usa/anytown/main-street/111", "token-1"))
	require.NoError(t, store.ApplyContractStatus(ctx, statusEvent(StatusApproved)))

	rec, err := store.Get(ctx, "usa/anytown/main-street/111")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.ContractStatus)
	assert.Equal(t, "token-1", rec.WaitApprovedTaskToken)

	// The approval's change record omits the token from the new image; the
	// old image still carries it for the consumer-side merge.
	log := changes(t, store)
	require.Len(t, log, 3)
	last := log[2]
	assert.Equal(t, "token-1", last.OldImage.TaskToken())
	assert.Empty(t, last.NewImage.TaskToken())
	assert.Equal(t, StatusApproved, last.NewImage.ContractStatus())
}

func TestSetResumeToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyContractStatus(ctx, statusEvent(StatusDraft)))
	require.NoError(t, store.SetResumeToken(ctx, "usa/anytown/main-street/111", "token-1"))

	rec, err := store.Get(ctx, "usa/anytown/main-street/111")
	require.NoError(t, err)
	assert.Equal(t, "token-1", rec.WaitApprovedTaskToken)
	// Contract columns untouched by the token write.
	assert.Equal(t, StatusDraft, rec.ContractStatus)
	assert.Equal(t, "25a238b4-3037-4b48-9a5c-88ec97fba9c8", rec.ContractID)

	log := changes(t, store)
	require.Len(t, log, 2)
	assert.Equal(t, "token-1", log[1].NewImage.TaskToken())
	assert.Empty(t, log[1].NewImage.ContractStatus())
}

func TestSetResumeToken_NoRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.SetResumeToken(context.Background(), "usa/nowhere/elm-street/9", "token-1")
	assert.ErrorIs(t, err, ErrContractStatusNotFound)
	assert.Empty(t, changes(t, store))
}

func TestSetResumeToken_Supersede(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyContractStatus(ctx, statusEvent(StatusDraft)))
	require.NoError(t, store.SetResumeToken(ctx, "usa/anytown/main-street/111", "token-1"))
	require.NoError(t, store.SetResumeToken(ctx, "usa/anytown/main-street/111", "token-2"))

	rec, err := store.Get(ctx, "usa/anytown/main-street/111")
	require.NoError(t, err)
	assert.Equal(t, "token-2", rec.WaitApprovedTaskToken)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "usa/nowhere/elm-street/9")
	assert.ErrorIs(t, err, ErrContractStatusNotFound)
}

func TestFullImage(t *testing.T) {
	assert.Nil(t, FullImage(nil))

	img := FullImage(&Record{
		PropertyID:     "usa/anytown/main-street/111",
		ContractStatus: StatusApproved,
	})
	assert.Equal(t, "usa/anytown/main-street/111", img.PropertyID())
	assert.Equal(t, StatusApproved, img.ContractStatus())
	_, hasToken := img[FieldWaitApprovedTaskToken]
	assert.False(t, hasToken)
}
