package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/harvestkit/harvestkit/internal/api"
	"github.com/harvestkit/harvestkit/internal/config"
	"github.com/harvestkit/harvestkit/internal/pipeline"
	"github.com/harvestkit/harvestkit/internal/presentation"
	"github.com/harvestkit/harvestkit/internal/storage"
	"github.com/harvestkit/harvestkit/internal/temporal/activities"
	"github.com/harvestkit/harvestkit/internal/temporal/workflows"
	"github.com/harvestkit/harvestkit/pkg/logging"
)

const taskQueue = "harvestkit"

var flagEnableTemporal bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the harvest API, the volume browser and an optional workflow worker",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagEnableTemporal, "temporal", false,
		"connect to a Temporal server for scheduled harvests")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	cfg.Query = "" // jobs arrive over the API
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.SetupLogger(cfg.Logging); err != nil {
		return err
	}
	logger := logging.GetLogger("server")

	metrics := storage.NewSimpleMetricsCollector()
	store, err := buildStore(cfg, metrics)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg, pipeline.Deps{Store: store})
	if err != nil {
		return err
	}
	tracker := pipeline.NewTracker()

	// Optional workflow worker for scheduled harvests.
	if flagEnableTemporal {
		temporalClient, err := client.Dial(client.Options{
			HostPort: cfg.Server.TemporalHost,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to temporal at %s: %w", cfg.Server.TemporalHost, err)
		}
		defer temporalClient.Close()

		w := worker.New(temporalClient, taskQueue, worker.Options{})
		w.RegisterWorkflow(workflows.HarvestWorkflow)
		w.RegisterWorkflow(workflows.ScheduledHarvestWorkflow)
		acts := activities.NewActivities(runner, tracker)
		w.RegisterActivityWithOptions(acts.RunHarvestActivity, activity.RegisterOptions{
			Name: workflows.HarvestActivityName,
		})

		go func() {
			if err := w.Run(worker.InterruptCh()); err != nil {
				logger.Fatal().Err(err).Msg("Workflow worker failed")
			}
		}()
		logger.Info().Str("host", cfg.Server.TemporalHost).Msg("Workflow worker started")
	}

	// Read-only volume browser on its own port.
	browser := presentation.NewBrowser(store, &presentation.BrowserConfig{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.BrowsePort,
		BasePath:   "/browse",
		EnableCORS: cfg.Server.EnableCORS,
	})
	go func() {
		if err := browser.Start(); err != nil {
			logger.Error().Err(err).Msg("Volume browser stopped")
		}
	}()

	h := api.NewHandlers(tracker, runner, store, metrics)
	app := api.NewServer(cfg.Server, h)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info().Msg("Shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("address", addr).Msg("Starting harvest API")
	return app.Listen(addr)
}
