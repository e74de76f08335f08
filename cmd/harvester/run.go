package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harvestkit/harvestkit/internal/config"
	"github.com/harvestkit/harvestkit/internal/pipeline"
	"github.com/harvestkit/harvestkit/internal/storage"
	"github.com/harvestkit/harvestkit/pkg/logging"
)

var (
	flagQuery      string
	flagTarget     string
	flagOutputDir  string
	flagFormat     string
	flagEngines    string
	flagMaxFiles   int
	flagTasks      int
	flagVolumeSize int
	flagUseBrowser bool
	flagNoRobots   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single harvest and exit",
	Long: `Run one harvest for a query and write the resulting volumes to the
output directory. Exits with status 1 when nothing could be harvested.`,
	RunE: runHarvest,
}

func addHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagQuery, "query", "q", "", "search query (falls back to INPUT_QUERY)")
	cmd.Flags().StringVarP(&flagTarget, "target", "t", "", "harvest target: pdf, page or any")
	cmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "output directory for volume files")
	cmd.Flags().StringVar(&flagFormat, "format", "", "volume format: text or pdf")
	cmd.Flags().StringVar(&flagEngines, "engines", "", "comma separated search engines")
	cmd.Flags().IntVar(&flagMaxFiles, "max-files", 0, "cap on stored documents per run")
	cmd.Flags().IntVar(&flagTasks, "tasks", 0, "number of concurrent download workers")
	cmd.Flags().IntVar(&flagVolumeSize, "volume-size", 0, "documents per volume")
	cmd.Flags().BoolVar(&flagUseBrowser, "browser", false, "enable the headless browser fallback")
	cmd.Flags().BoolVar(&flagNoRobots, "no-robots", false, "skip robots.txt checks")
}

func init() {
	addHarvestFlags(runCmd)
}

// loadConfig layers explicitly set flags over the environment config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromEnv()

	if cmd.Flags().Changed("query") {
		cfg.Query = flagQuery
	}
	if cmd.Flags().Changed("target") {
		cfg.Target = flagTarget
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = flagOutputDir
	}
	if cmd.Flags().Changed("format") {
		cfg.VolumeFormat = flagFormat
	}
	if cmd.Flags().Changed("engines") {
		cfg.Engines = strings.Split(flagEngines, ",")
	}
	if cmd.Flags().Changed("max-files") {
		cfg.MaxFiles = flagMaxFiles
	}
	if cmd.Flags().Changed("tasks") {
		cfg.Tasks = flagTasks
	}
	if cmd.Flags().Changed("volume-size") {
		cfg.VolumeSize = flagVolumeSize
	}
	if cmd.Flags().Changed("browser") {
		cfg.UseBrowser = flagUseBrowser
	}
	if cmd.Flags().Changed("no-robots") {
		cfg.RespectRobots = !flagNoRobots
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildStore assembles the storage stack: a file backend for the output
// directory, mirrored into a git archive when one is configured. The
// git backend owns the archive worktree, so the file backend stays out
// of it and documents get committed instead of sitting untracked.
func buildStore(cfg *config.Config, metrics *storage.SimpleMetricsCollector) (storage.Backend, error) {
	fileBackend, err := storage.NewFileBackend(cfg.OutputDir, "", metrics)
	if err != nil {
		return nil, err
	}
	if cfg.ArchiveDir == "" {
		return fileBackend, nil
	}

	gitBackend, err := storage.NewGitBackend(cfg.ArchiveDir, metrics)
	if err != nil {
		return nil, err
	}
	return storage.NewHybridStorage(fileBackend, gitBackend, nil, metrics), nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Query) == "" {
		return fmt.Errorf("a query is required: pass --query or set INPUT_QUERY")
	}

	if err := logging.SetupLogger(cfg.Logging); err != nil {
		return err
	}
	logger := logging.GetLogger("harvester")

	store, err := buildStore(cfg, storage.NewSimpleMetricsCollector())
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg, pipeline.Deps{Store: store})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("query", cfg.Query).
		Str("target", cfg.Target).
		Int("max_files", cfg.MaxFiles).
		Int("tasks", cfg.Tasks).
		Msg("Starting harvest")

	job := pipeline.NewJob(cfg.Query, cfg.Target)
	if err := runner.Run(ctx, job); err != nil {
		logger.Error().Err(err).Msg("Harvest failed")
		return err
	}

	view := job.Snapshot()
	logger.Info().
		Int("links", view.Stats.LinksFound).
		Int("stored", view.Stats.Stored).
		Int("volumes", view.Stats.Volumes).
		Str("output", cfg.OutputDir).
		Msg("Harvest finished")
	return nil
}
