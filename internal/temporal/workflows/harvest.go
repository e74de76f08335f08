package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// HarvestActivityName is the registered name of the harvest activity.
const HarvestActivityName = "RunHarvestActivity"

// HarvestInput defines one harvest run.
type HarvestInput struct {
	Query  string `json:"query"`
	Target string `json:"target"` // pdf, page or any
}

// HarvestResult summarizes a completed harvest run.
type HarvestResult struct {
	JobID   string `json:"job_id"`
	Links   int    `json:"links"`
	Stored  int    `json:"stored"`
	Volumes int    `json:"volumes"`
}

// HarvestWorkflow runs a single harvest job through the pipeline.
func HarvestWorkflow(ctx workflow.Context, input HarvestInput) (HarvestResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting harvest", "query", input.Query, "target", input.Target)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			NonRetryableErrorTypes: []string{"InvalidInputError", "*extractor.ProcessingError"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result HarvestResult
	if err := workflow.ExecuteActivity(ctx, HarvestActivityName, input).Get(ctx, &result); err != nil {
		return result, err
	}

	logger.Info("Harvest completed", "job_id", result.JobID, "stored", result.Stored, "volumes", result.Volumes)
	return result, nil
}

// ScheduledHarvestInput defines a recurring batch of harvest queries.
// The cron schedule itself is set via workflow options at start time.
type ScheduledHarvestInput struct {
	Name    string   `json:"name"`
	Queries []string `json:"queries"`
	Target  string   `json:"target"`
}

// ScheduledHarvestWorkflow fans one child harvest out per query. A
// failed query does not stop the batch.
func ScheduledHarvestWorkflow(ctx workflow.Context, input ScheduledHarvestInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting scheduled harvest", "name", input.Name, "queries", len(input.Queries))

	var futures []workflow.ChildWorkflowFuture
	for i, query := range input.Queries {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("harvest-%s-%d", input.Name, i),
		})
		futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, HarvestWorkflow, HarvestInput{
			Query:  query,
			Target: input.Target,
		}))
	}

	completed := 0
	for _, future := range futures {
		var result HarvestResult
		if err := future.Get(ctx, &result); err != nil {
			logger.Error("Harvest query failed", "error", err)
			continue
		}
		completed++
	}

	logger.Info("Scheduled harvest completed", "name", input.Name, "succeeded", completed, "total", len(input.Queries))
	return nil
}
