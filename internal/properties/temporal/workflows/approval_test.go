// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/propertyflow/propertyflow/internal/eventbus"
	"github.com/propertyflow/propertyflow/internal/properties/temporal/types"
)

// Mock activity functions for testing
func CheckContractExistsActivity(ctx context.Context, input types.CheckContractExistsInput) error {
	return nil
}

func WaitForContractApprovalActivity(ctx context.Context, input types.WaitForContractApprovalInput) (types.ContractStatusRecord, error) {
	return types.ContractStatusRecord{
		PropertyID:     input.PropertyID,
		ContractID:     "f2bedc80-3dc8-4544-9140-9b606d71a6ee",
		ContractStatus: "APPROVED",
	}, nil
}

func DetectImageModerationsActivity(ctx context.Context, input types.DetectImageModerationsInput) (*types.ImageModeration, error) {
	return &types.ImageModeration{}, nil
}

func DetectContentSentimentActivity(ctx context.Context, input types.DetectContentSentimentInput) (*types.ContentSentiment, error) {
	return &types.ContentSentiment{Sentiment: types.SentimentPositive}, nil
}

func PublishEvaluationCompletedActivity(ctx context.Context, input types.PublishEvaluationCompletedInput) error {
	return nil
}

func approvalInput() types.ApprovalWorkflowInput {
	return types.ApprovalWorkflowInput{
		PropertyID:  "usa/anytown/main-street/111",
		Address:     eventbus.Address{Country: "USA", City: "Anytown", Street: "Main Street", Number: 111},
		Images:      []string{"prop1_exterior.jpg", "prop1_kitchen.jpg"},
		Description: "A beautiful home with a stunning garden",
	}
}

func newApprovalTestEnv() (*testsuite.TestWorkflowEnvironment, *testsuite.WorkflowTestSuite) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.RegisterActivity(CheckContractExistsActivity)
	env.RegisterActivity(WaitForContractApprovalActivity)
	env.RegisterActivity(DetectImageModerationsActivity)
	env.RegisterActivity(DetectContentSentimentActivity)
	env.RegisterActivity(PublishEvaluationCompletedActivity)

	return env, testSuite
}

func TestApprovalWorkflow_Approved(t *testing.T) {
	env, _ := newApprovalTestEnv()

	var published types.PublishEvaluationCompletedInput
	env.OnActivity(PublishEvaluationCompletedActivity, mock.Anything, mock.Anything).
		Return(func(ctx context.Context, input types.PublishEvaluationCompletedInput) error {
			published = input
			return nil
		})

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result types.ApprovalWorkflowOutput
	assert.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "APPROVED", result.EvaluationResult)
	assert.Equal(t, "APPROVED", published.EvaluationResult)
	assert.Equal(t, "usa/anytown/main-street/111", published.PropertyID)

	env.AssertExpectations(t)
}

func TestApprovalWorkflow_MissingContractFails(t *testing.T) {
	env, _ := newApprovalTestEnv()

	env.OnActivity(CheckContractExistsActivity, mock.Anything, mock.Anything).
		Return(temporal.NewNonRetryableApplicationError(
			"no contract found for property usa/anytown/main-street/111",
			"ContractStatusNotFound",
			nil,
		))

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	assert.Error(t, err)

	var appErr *temporal.ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ContractStatusNotFound", appErr.Type())
}

func TestApprovalWorkflow_ModerationLabelsDecline(t *testing.T) {
	env, _ := newApprovalTestEnv()

	env.OnActivity(DetectImageModerationsActivity, mock.Anything, mock.Anything).
		Return(&types.ImageModeration{ModerationLabels: []string{"Weapons"}}, nil)

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result types.ApprovalWorkflowOutput
	assert.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "DECLINED", result.EvaluationResult)
}

func TestApprovalWorkflow_NegativeSentimentDeclines(t *testing.T) {
	env, _ := newApprovalTestEnv()

	env.OnActivity(DetectContentSentimentActivity, mock.Anything, mock.Anything).
		Return(&types.ContentSentiment{Sentiment: types.SentimentNegative}, nil)

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result types.ApprovalWorkflowOutput
	assert.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "DECLINED", result.EvaluationResult)
}

func TestApprovalWorkflow_ModerationFailureDeclines(t *testing.T) {
	// A broken moderation branch must not fail the workflow; the seller
	// still gets a decision, and it is DECLINED.
	env, _ := newApprovalTestEnv()

	env.OnActivity(DetectImageModerationsActivity, mock.Anything, mock.Anything).
		Return(nil, errors.New("moderation backend unavailable"))

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result types.ApprovalWorkflowOutput
	assert.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "DECLINED", result.EvaluationResult)
}

func TestApprovalWorkflow_WaitReturnsContractRecord(t *testing.T) {
	env, _ := newApprovalTestEnv()

	env.OnActivity(WaitForContractApprovalActivity, mock.Anything, mock.Anything).
		Return(types.ContractStatusRecord{
			PropertyID:     "usa/anytown/main-street/111",
			ContractStatus: "APPROVED",
		}, nil)

	env.ExecuteWorkflow(ApprovalWorkflow, approvalInput())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}
