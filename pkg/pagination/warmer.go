package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// WarmConfig holds cache warmer configuration
type WarmConfig struct {
	// MaxConcurrency is the number of brewery types warmed in parallel
	MaxConcurrency int
	// Pages is the number of leading pages warmed per type
	Pages int
	// PageSize is the number of breweries per page
	PageSize int
	// Timeout per page load
	Timeout time.Duration
}

// DefaultWarmConfig returns conservative defaults for the public brewery API
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		MaxConcurrency: 4,
		Pages:          3,
		PageSize:       DefaultPageSize,
		Timeout:        15 * time.Second,
	}
}

// WarmResult is the outcome of warming one brewery type
type WarmResult struct {
	Type      string
	Pages     int
	Breweries int
	// FromStore counts pages that were still fresh and needed no fetch
	FromStore int
	Err       error
}

// WarmReport collects the results of one Warm run, in request order
type WarmReport struct {
	Results  []WarmResult
	Duration time.Duration
}

// Breweries returns the total number of breweries loaded across all types
func (r WarmReport) Breweries() int {
	total := 0
	for _, res := range r.Results {
		total += res.Breweries
	}
	return total
}

// Warmer preloads the leading pages of several brewery types through their
// paging sources so later reads are served from the store.
type Warmer struct {
	factory SourceFactory
	config  WarmConfig
}

// NewWarmer creates a new warmer
func NewWarmer(factory SourceFactory, config WarmConfig) *Warmer {
	if factory == nil {
		panic("source factory cannot be nil")
	}
	defaults := DefaultWarmConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Pages <= 0 {
		config.Pages = defaults.Pages
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Warmer{
		factory: factory,
		config:  config,
	}
}

// Warm loads pages 1..Pages of every type using a worker pool. Pages of one
// type load in order and stop early on the end of pagination. The returned
// error combines every per-type failure; the report is always complete.
func (w *Warmer) Warm(ctx context.Context, types []string) (WarmReport, error) {
	start := time.Now()
	results := make([]WarmResult, len(types))

	log.Info().
		Int("types", len(types)).
		Int("pages", w.config.Pages).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting cache warm")

	queue := make(chan int, len(types))
	for i := range types {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, types, queue, results, &wg, i)
	}
	wg.Wait()

	var err error
	for _, res := range results {
		if res.Err != nil {
			err = multierr.Append(err, fmt.Errorf("warm %s: %w", res.Type, res.Err))
		}
	}

	report := WarmReport{Results: results, Duration: time.Since(start)}
	log.Info().
		Int("types", len(types)).
		Int("breweries", report.Breweries()).
		Int("failed", len(multierr.Errors(err))).
		Dur("duration", report.Duration).
		Msg("Cache warm complete")

	return report, err
}

// worker warms types taken from the queue; each index is written by one worker only
func (w *Warmer) worker(ctx context.Context, types []string, queue <-chan int, results []WarmResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for idx := range queue {
		breweryType := types[idx]
		if err := ctx.Err(); err != nil {
			results[idx] = WarmResult{Type: breweryType, Err: err}
			continue
		}
		results[idx] = w.warmType(ctx, breweryType)

		log.Debug().
			Int("worker_id", workerID).
			Str("type", breweryType).
			Int("pages", results[idx].Pages).
			Msg("Type warmed")
	}
}

func (w *Warmer) warmType(ctx context.Context, breweryType string) WarmResult {
	res := WarmResult{Type: breweryType}
	source := w.factory(breweryType)

	for key := FirstPage; key < FirstPage+w.config.Pages; key++ {
		pageCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		page, err := source.Load(pageCtx, LoadParams{Key: intPtr(key), LoadSize: w.config.PageSize})
		cancel()
		if err != nil {
			res.Err = err
			return res
		}

		res.Pages++
		res.Breweries += len(page.Data)
		if page.FromStore {
			res.FromStore++
		}
		if page.NextKey == nil {
			break
		}
	}
	return res
}
