package worker

import (
	"context"
	"os"
	"time"

	"sjsage522/dealcatalog/internal/crawler"
	"sjsage522/dealcatalog/internal/ingest"
	"sjsage522/dealcatalog/logger"
	"sjsage522/dealcatalog/services/publisher"
)

// Runner runs one scraping pass over crawlers.
type Runner interface {
	Run(ctx context.Context, crawlers []crawler.Crawler) (ingest.Results, error)
}

// ResultHandler receives the results of each completed pass.
type ResultHandler func(ingest.Results)

// Worker schedules scraping runs and trims the event streams afterwards
type Worker struct {
	runner        Runner
	crawlers      []crawler.Crawler
	publisher     publisher.Publisher
	crawlInterval time.Duration
	onResults     ResultHandler
}

// NewWorker creates a new worker. pub and onResults may be nil.
func NewWorker(
	runner Runner,
	crawlers []crawler.Crawler,
	pub publisher.Publisher,
	crawlInterval time.Duration,
	onResults ResultHandler,
) *Worker {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &Worker{
		runner:        runner,
		crawlers:      crawlers,
		publisher:     pub,
		crawlInterval: crawlInterval,
		onResults:     onResults,
	}
}

// RunOnce performs a single scraping run and then trims the streams
func (w *Worker) RunOnce(ctx context.Context) (ingest.Results, error) {
	log := logger.ForComponent("worker")
	start := time.Now()

	results, err := w.runner.Run(ctx, w.crawlers)
	if err != nil {
		return results, err
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		log.Error().Err(err).Msg("Stream trimming failed")
	}

	if os.Getenv("DEALS_ENVIRONMENT") != "production" {
		log.Info().Dur("elapsed", time.Since(start)).Msg("Scraping run finished")
	}

	if w.onResults != nil {
		w.onResults(results)
	}
	return results, nil
}

// Start runs scraping passes every crawlInterval until ctx is cancelled.
// A failed pass is logged and the loop carries on.
func (w *Worker) Start(ctx context.Context) error {
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.ForComponent("worker").Error().Err(err).Msg("Scraping run failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}
