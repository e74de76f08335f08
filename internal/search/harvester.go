package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/harvestkit/harvestkit/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Harvester fans a query out over a set of engines and merges the
// results into a deduplicated link list.
type Harvester struct {
	engines []Engine
}

// ErrNoResults is returned when every engine came back empty. Callers
// treat this as fatal for the run.
var ErrNoResults = fmt.Errorf("no results from any search engine")

// NewHarvester creates a harvester over the given engines. Engine order
// is meaningful: when two engines return the same URL, the earlier
// engine's metadata wins.
func NewHarvester(engines ...Engine) *Harvester {
	return &Harvester{engines: engines}
}

// Harvest runs the query against all engines concurrently. Individual
// engine failures are logged and skipped; only a full wipeout is an
// error.
func (h *Harvester) Harvest(ctx context.Context, query Query) ([]Result, error) {
	logger := logging.GetLogger("harvester")

	perEngine := make([][]Result, len(h.engines))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, engine := range h.engines {
		g.Go(func() error {
			results, err := engine.Search(gctx, query)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("engine", engine.Name()).
					Str("query", query.Text).
					Msg("Engine search failed, continuing with others")
				return nil
			}
			logger.Debug().
				Str("engine", engine.Name()).
				Int("results", len(results)).
				Msg("Engine search completed")
			mu.Lock()
			perEngine[i] = results
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := h.merge(perEngine, query.MaxResults)
	if len(merged) == 0 {
		return nil, ErrNoResults
	}

	logger.Info().
		Str("query", query.Text).
		Bool("pdf_only", query.PDFOnly).
		Int("links", len(merged)).
		Msg("Harvest completed")
	return merged, nil
}

// merge deduplicates results by URL. perEngine is iterated in engine
// priority order, so the first engine to return a URL keeps it.
func (h *Harvester) merge(perEngine [][]Result, max int) []Result {
	seen := make(map[string]bool)
	var merged []Result

	for _, results := range perEngine {
		for _, r := range results {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
		}
	}

	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}
