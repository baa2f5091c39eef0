package worker

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"pricescout/internal/catalog"
	"pricescout/internal/scraper"
	"pricescout/logger"
	"pricescout/services/publisher"
)

// Dispatcher scrapes one monitored URL
type Dispatcher interface {
	Scrape(ctx context.Context, url string) scraper.Result
}

// Runner fans a batch of monitored URLs out to the dispatcher, publishes
// each result, and optionally folds it into the catalogue. Runs are mutually
// exclusive; a tick that fires while the previous batch is still going is
// skipped.
type Runner struct {
	dispatcher Dispatcher
	publisher  publisher.Publisher
	ingestor   *catalog.Ingestor
	urls       []string
	log        *logger.Logger
	running    atomic.Bool
}

// NewRunner creates a batch runner. publisher and ingestor may be nil when
// the respective sink is not configured.
func NewRunner(dispatcher Dispatcher, pub publisher.Publisher, ingestor *catalog.Ingestor, urls []string) *Runner {
	return &Runner{
		dispatcher: dispatcher,
		publisher:  pub,
		ingestor:   ingestor,
		urls:       urls,
		log:        logger.ForWorker(),
	}
}

// BatchReport summarizes one batch run
type BatchReport struct {
	URLs          int           `json:"urls"`
	TotalProducts int           `json:"totalProducts"`
	Failures      int           `json:"failures"`
	Elapsed       time.Duration `json:"elapsed"`
	Skipped       bool          `json:"skipped"`
}

// RunAll scrapes every monitored URL concurrently and waits for the batch
// to finish
func (r *Runner) RunAll(ctx context.Context) BatchReport {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn().Msg("Previous batch still running, skipping this run")
		return BatchReport{Skipped: true}
	}
	defer r.running.Store(false)

	start := time.Now()
	r.log.Info().Int("urls", len(r.urls)).Msg("Starting batch run")

	results := make([]scraper.Result, len(r.urls))
	var wg sync.WaitGroup
	for i, url := range r.urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error().Interface("panic", rec).Str("url", url).Msg("Scrape panicked")
				}
			}()
			results[i] = r.dispatcher.Scrape(ctx, url)
		}(i, url)
	}
	wg.Wait()

	report := BatchReport{URLs: len(r.urls)}
	for _, res := range results {
		report.TotalProducts += res.TotalProducts
		// An empty product list on a reachable page is a legitimate outcome,
		// not a failure.
		if res.Failed {
			report.Failures++
		}
		r.sink(res)
	}

	if r.publisher != nil {
		if err := r.publisher.TrimStreams(); err != nil {
			r.log.Warn().Err(err).Msg("Stream trim failed")
		}
	}

	report.Elapsed = time.Since(start)
	r.log.Info().
		Int("urls", report.URLs).
		Int("products", report.TotalProducts).
		Int("failures", report.Failures).
		Dur("elapsed", report.Elapsed).
		Msg("Batch run finished")

	return report
}

// sink publishes one result and records it in the catalogue. Sink failures
// are logged, never fatal to the batch.
func (r *Runner) sink(res scraper.Result) {
	if r.publisher != nil && res.TotalProducts > 0 {
		payload, err := json.Marshal(res)
		if err != nil {
			r.log.Error().Err(err).Str("competitor", res.CompetitorName).Msg("Result marshal failed")
		} else if err := r.publisher.Publish(res.SiteCode, payload); err != nil {
			r.log.Error().Err(err).Str("competitor", res.CompetitorName).Msg("Result publish failed")
		}
	}

	if r.ingestor != nil && res.TotalProducts > 0 {
		if ingest := r.ingestor.RecordRun(res); len(ingest.Errors) > 0 {
			r.log.Warn().
				Str("competitor", res.CompetitorName).
				Int("errors", len(ingest.Errors)).
				Msg("Run recorded with errors")
		}
	}
}
