package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

// registerHarvestActivity registers a stand-in under the production
// activity name so the environment can resolve string-named mocks.
func registerHarvestActivity(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivityWithOptions(
		func(ctx context.Context, input HarvestInput) (HarvestResult, error) {
			return HarvestResult{}, nil
		},
		activity.RegisterOptions{Name: HarvestActivityName},
	)
}

func TestHarvestWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerHarvestActivity(env)

	env.OnActivity(HarvestActivityName, mock.Anything, mock.Anything).Return(
		HarvestResult{JobID: "job-1", Links: 20, Stored: 10, Volumes: 1}, nil)

	env.ExecuteWorkflow(HarvestWorkflow, HarvestInput{
		Query:  "ocean currents",
		Target: "pdf",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result HarvestResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, 10, result.Stored)
	env.AssertExpectations(t)
}

func TestHarvestWorkflowPropagatesFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerHarvestActivity(env)

	env.OnActivity(HarvestActivityName, mock.Anything, mock.Anything).Return(
		HarvestResult{}, errors.New("no results from any search engine"))

	env.ExecuteWorkflow(HarvestWorkflow, HarvestInput{Query: "nothing"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestScheduledHarvestWorkflowContinuesOnFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(HarvestWorkflow)

	env.OnWorkflow(HarvestWorkflow, mock.Anything, HarvestInput{Query: "good query", Target: "any"}).
		Return(HarvestResult{JobID: "job-1", Stored: 5, Volumes: 1}, nil)
	env.OnWorkflow(HarvestWorkflow, mock.Anything, HarvestInput{Query: "bad query", Target: "any"}).
		Return(HarvestResult{}, errors.New("harvest failed"))

	env.ExecuteWorkflow(ScheduledHarvestWorkflow, ScheduledHarvestInput{
		Name:    "nightly",
		Queries: []string{"good query", "bad query"},
		Target:  "any",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError(), "one failed query must not fail the batch")
	env.AssertExpectations(t)
}
