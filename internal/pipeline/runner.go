package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harvestkit/harvestkit/internal/compliance"
	"github.com/harvestkit/harvestkit/internal/config"
	"github.com/harvestkit/harvestkit/internal/fetch"
	"github.com/harvestkit/harvestkit/internal/processing"
	"github.com/harvestkit/harvestkit/internal/quality"
	"github.com/harvestkit/harvestkit/internal/search"
	"github.com/harvestkit/harvestkit/internal/storage"
	"github.com/harvestkit/harvestkit/internal/volume"
	"github.com/harvestkit/harvestkit/pkg/document"
	"github.com/harvestkit/harvestkit/pkg/extractor"
	"github.com/harvestkit/harvestkit/pkg/logging"
	"github.com/harvestkit/harvestkit/pkg/ratelimit"
)

// ErrNoDocuments indicates a run that found links but stored nothing.
var ErrNoDocuments = errors.New("no documents passed the pipeline")

// Deps bundles the pipeline collaborators. Nil fields are built from
// the configuration, so tests can substitute stubs selectively.
type Deps struct {
	Harvester *search.Harvester
	Fetcher   fetch.Fetcher
	Checker   *compliance.Checker
	Limiter   *ratelimit.DomainRateLimiter
	Store     storage.Backend
}

// Runner drives a harvest job from search results to stored volumes
// with a bounded pool of download workers.
type Runner struct {
	cfg       *config.Config
	harvester *search.Harvester
	fetcher   fetch.Fetcher
	extract   *extractor.Engine
	cleaner   *processing.ContentCleaner
	validator *quality.Validator
	checker   *compliance.Checker
	limiter   *ratelimit.DomainRateLimiter
	store     storage.Backend
	renderer  volume.Renderer
}

// NewRunner wires a pipeline runner from configuration. Deps.Store is
// required, the rest default to configuration-derived implementations.
func NewRunner(cfg *config.Config, deps Deps) (*Runner, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("pipeline requires a storage backend")
	}

	client := search.NewHTTPClient(cfg.FetchTimeout)

	harvester := deps.Harvester
	if harvester == nil {
		engines, err := search.FromNames(cfg.Engines, client, cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		harvester = search.NewHarvester(engines...)
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		httpCfg := fetch.DefaultHTTPConfig()
		httpCfg.Timeout = cfg.FetchTimeout
		fetchers := []fetch.Fetcher{fetch.NewHTTPFetcher(client, httpCfg)}
		if cfg.UseBrowser {
			fetchers = append(fetchers, fetch.NewBrowserFetcher(fetch.DefaultBrowserConfig()))
		}
		fetcher = fetch.NewChain(fetchers...)
	}

	checker := deps.Checker
	if checker == nil {
		complianceCfg := compliance.DefaultConfig()
		complianceCfg.RespectRobotsTxt = cfg.RespectRobots
		checker = compliance.NewChecker(complianceCfg, client)
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewDomainRateLimiter(cfg.RateLimit)
	}

	renderer, err := volume.ForFormat(cfg.VolumeFormat)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		harvester: harvester,
		fetcher:   fetcher,
		extract:   extractor.NewEngine(),
		cleaner:   processing.NewContentCleaner(),
		validator: quality.NewValidator(quality.DefaultValidationConfig()),
		checker:   checker,
		limiter:   limiter,
		store:     deps.Store,
		renderer:  renderer,
	}, nil
}

// Run executes a harvest job. The error is also recorded on the job.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	logger := logging.GetJobLogger(job.ID(), job.Query())
	job.begin()

	query := search.Query{
		Text:       job.Query(),
		PDFOnly:    job.Target() == "pdf",
		MaxResults: r.overfetch(),
	}

	results, err := r.harvester.Harvest(ctx, query)
	if err != nil {
		job.fail(err)
		return err
	}
	job.setLinksFound(len(results))

	builder := volume.NewBuilder(job.Query(), r.cfg.VolumeFormat, r.cfg.VolumeSize)

	links := make(chan search.Result)
	go func() {
		defer close(links)
		for _, res := range results {
			select {
			case links <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := r.cfg.Tasks
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLogger := logger.With().Int("worker_id", id).Logger()
			for res := range links {
				if ctx.Err() != nil {
					return
				}
				if job.storedCount() >= r.cfg.MaxFiles {
					continue // keep draining so the feeder can finish
				}
				r.processLink(ctx, job, builder, res, workerLogger)
			}
		}(i)
	}
	wg.Wait()

	if vol := builder.Flush(); vol != nil {
		r.storeVolume(ctx, job, vol, logger)
	}

	if err := ctx.Err(); err != nil {
		job.fail(err)
		return err
	}
	if job.storedCount() == 0 {
		job.fail(ErrNoDocuments)
		return ErrNoDocuments
	}

	view := job.Snapshot()
	logger.Info().
		Int("links", view.Stats.LinksFound).
		Int("stored", view.Stats.Stored).
		Int("volumes", view.Stats.Volumes).
		Msg("Harvest completed")
	job.complete()
	return nil
}

// overfetch requests more links than MaxFiles because a share of every
// result set fails to download or is rejected by quality checks.
func (r *Runner) overfetch() int {
	n := r.cfg.MaxFiles * 3
	if n < 10 {
		n = 10
	}
	return n
}

func (r *Runner) processLink(ctx context.Context, job *Job, builder *volume.Builder, res search.Result, logger zerolog.Logger) {
	check, err := r.checker.Check(ctx, res.URL)
	if err != nil || !check.Allowed {
		if err == nil {
			logger.Debug().Str("url", res.URL).Str("reason", check.Reason).Msg("Link skipped")
		}
		job.addSkipped()
		return
	}

	domain := hostOf(res.URL)
	if err := r.limiter.Wait(ctx, domain); err != nil {
		return
	}

	fetched, err := r.fetcher.Fetch(ctx, res.URL)
	if err != nil {
		r.limiter.ReportFailure(domain)
		logger.Warn().Err(err).Str("url", res.URL).Msg("Fetch failed")
		job.addFetchFailure()
		return
	}
	r.limiter.ReportSuccess(domain)

	docType := fetch.ClassifyContentType(fetched.ContentType, fetched.FinalURL)
	if !r.targetAccepts(job.Target(), docType) {
		logger.Debug().Str("url", res.URL).Str("type", docType).Msg("Link type outside target")
		job.addSkipped()
		return
	}
	if docType == "pdf" {
		if err := fetch.ValidatePDF(fetched.Body, r.cfg.MinPDFSize); err != nil {
			logger.Debug().Err(err).Str("url", res.URL).Msg("PDF rejected")
			job.addRejected()
			return
		}
	}

	text, metadata, err := r.extract.Extract(ctx, fetched.Body, docType)
	if err != nil {
		logger.Warn().Err(err).Str("url", res.URL).Str("type", docType).Msg("Extraction failed")
		job.addRejected()
		return
	}

	doc := r.buildDocument(res, fetched, docType, text, metadata, job.Query())

	if _, err := r.cleaner.CleanDocument(ctx, doc); err != nil {
		logger.Warn().Err(err).Str("url", res.URL).Msg("Cleaning failed")
		job.addRejected()
		return
	}

	verdict, err := r.validator.ValidateContent(ctx, doc.Content.Text, metadata)
	if err != nil {
		job.addRejected()
		return
	}
	if !verdict.Passed {
		logger.Debug().
			Str("url", res.URL).
			Float64("score", verdict.Score).
			Strs("issues", verdict.Issues).
			Msg("Content rejected")
		job.addRejected()
		return
	}

	if !job.tryStore(r.cfg.MaxFiles) {
		return
	}

	if r.cfg.ArchiveDir != "" {
		if _, err := r.store.StoreDocument(ctx, doc); err != nil {
			logger.Warn().Err(err).Str("document_id", doc.ID).Msg("Document archive failed")
		}
	}

	if vol := builder.Add(doc); vol != nil {
		r.storeVolume(ctx, job, vol, logger)
	}
}

func (r *Runner) storeVolume(ctx context.Context, job *Job, vol *volume.Volume, logger zerolog.Logger) {
	data, err := r.renderer.Render(vol)
	if err != nil {
		logger.Error().Err(err).Str("volume", vol.FileName()).Msg("Volume rendering failed")
		return
	}
	ref, err := r.store.StoreVolume(ctx, vol, data)
	if err != nil {
		logger.Error().Err(err).Str("volume", vol.FileName()).Msg("Volume store failed")
		return
	}
	job.addVolume()
	logger.Info().
		Str("volume", vol.FileName()).
		Str("ref", ref).
		Int("documents", len(vol.Documents)).
		Int("words", vol.TotalWords()).
		Msg("Volume written")
}

// targetAccepts applies the configured harvest target to a classified
// content type.
func (r *Runner) targetAccepts(target, docType string) bool {
	switch target {
	case "pdf":
		return docType == "pdf"
	case "page":
		return docType != "pdf"
	default:
		return true
	}
}

func (r *Runner) buildDocument(res search.Result, fetched *fetch.Result, docType, text string, metadata map[string]string, query string) *document.Document {
	now := time.Now().UTC()
	doc := &document.Document{
		ID: uuid.New().String(),
		Source: document.Source{
			Type:   docType,
			URL:    res.URL,
			Engine: res.Engine,
			Query:  query,
		},
		Title:     res.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if title, ok := metadata["title"]; ok && title != "" {
		doc.Title = title
	}
	doc.Date = metadata["date"]
	doc.Content.Raw = fetched.Body
	doc.Content.Text = text
	doc.Content.Metadata = metadata
	doc.WordCount = doc.CountWords()
	return doc
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Hostname()
}
