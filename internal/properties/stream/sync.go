// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/propertyflow/propertyflow/internal/logger"
	"github.com/propertyflow/propertyflow/internal/properties/mirror"
)

var (
	streamLog     *zerolog.Logger
	streamLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	streamLogOnce.Do(func() {
		l := logger.GetStreamLogger()
		streamLog = &l
	})
	return streamLog
}

// ErrTokenNoLongerValid marks a resume token whose workflow run is gone:
// already resumed, timed out, or terminated. Resuming with a dead token is
// a no-op, not a failure.
var ErrTokenNoLongerValid = errors.New("resume token no longer valid")

// WorkflowResumer completes a paused approval wait, delivering the merged
// contract record as the wait step's result. Implemented by the properties
// Temporal client.
type WorkflowResumer interface {
	ResumeApproval(ctx context.Context, taskToken string, record mirror.Image) error
}

// mergeImages overlays a change's new image on its old one. The new image
// wins on fields it carries; fields it omits keep their old value. Writers
// are column-scoped, so this reconstructs the full record state at the time
// of the change.
func mergeImages(oldImage, newImage mirror.Image) mirror.Image {
	merged := make(mirror.Image, len(oldImage)+len(newImage))
	for k, v := range oldImage {
		merged[k] = v
	}
	for k, v := range newImage {
		merged[k] = v
	}
	return merged
}

// Synchronizer pairs contract approvals with paused workflow runs. Each
// change is reduced to "is there a token, and is the contract APPROVED" on
// the merged image; anything else is ignored, which makes replays harmless.
type Synchronizer struct {
	resumer WorkflowResumer
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(resumer WorkflowResumer) *Synchronizer {
	return &Synchronizer{resumer: resumer}
}

// HandleChange processes one mirror change record.
func (s *Synchronizer) HandleChange(ctx context.Context, change mirror.ChangeRecord) error {
	merged := mergeImages(change.OldImage, change.NewImage)

	token := merged.TaskToken()
	if token == "" {
		getLog().Debug().
			Uint64("seq", change.Seq).
			Str("property_id", change.PropertyID).
			Msg("No workflow waiting for this property, skipping")
		return nil
	}

	status := merged.ContractStatus()
	if status != mirror.StatusApproved {
		getLog().Info().
			Uint64("seq", change.Seq).
			Str("property_id", change.PropertyID).
			Str("contract_status", status).
			Msg("Contract not yet approved, workflow stays paused")
		return nil
	}

	err := s.resumer.ResumeApproval(ctx, token, merged)
	if errors.Is(err, ErrTokenNoLongerValid) {
		getLog().Info().
			Uint64("seq", change.Seq).
			Str("property_id", change.PropertyID).
			Msg("Resume token already consumed, nothing to do")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resume approval for %s: %w", change.PropertyID, err)
	}

	getLog().Info().
		Uint64("seq", change.Seq).
		Str("property_id", change.PropertyID).
		Msg("Resumed paused approval workflow")
	return nil
}
