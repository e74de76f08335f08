package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/harvestkit/harvestkit/internal/pipeline"
	"github.com/harvestkit/harvestkit/internal/temporal/workflows"
)

// Activities holds the pipeline dependencies for harvest activities.
type Activities struct {
	runner  *pipeline.Runner
	tracker *pipeline.Tracker
}

// NewActivities creates the activity set backed by a pipeline runner.
func NewActivities(runner *pipeline.Runner, tracker *pipeline.Tracker) *Activities {
	return &Activities{
		runner:  runner,
		tracker: tracker,
	}
}

// RunHarvestActivity executes one harvest job and reports its stats.
// Heartbeats while the pipeline runs so long downloads do not look stuck.
func (a *Activities) RunHarvestActivity(ctx context.Context, input workflows.HarvestInput) (workflows.HarvestResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running harvest", "query", input.Query, "target", input.Target)

	job := a.tracker.Create(input.Query, input.Target)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, job.Snapshot().Stats)
			case <-done:
				return
			}
		}
	}()

	err := a.runner.Run(ctx, job)
	close(done)

	view := job.Snapshot()
	result := workflows.HarvestResult{
		JobID:   view.ID,
		Links:   view.Stats.LinksFound,
		Stored:  view.Stats.Stored,
		Volumes: view.Stats.Volumes,
	}
	if err != nil {
		logger.Error("Harvest failed", "job_id", view.ID, "error", err)
		return result, err
	}

	logger.Info("Harvest finished", "job_id", view.ID, "stored", result.Stored)
	return result, nil
}
