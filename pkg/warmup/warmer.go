package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel loads.
	MaxConcurrency int
	// Timeout per batch load.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        5 * time.Second,
	}
}

// BatchLoader loads one batch into the cache.
type BatchLoader interface {
	WarmBatch(ctx context.Context, requestID string, reloadIndex int) error
}

// Job identifies one batch.
type Job struct {
	RequestID   string
	ReloadIndex int
}

// Summary reports a warm-up run.
type Summary struct {
	Warmed   int
	Failed   []Job
	Duration time.Duration
}

// Warmer loads batches with a worker pool.
type Warmer struct {
	loader BatchLoader
	config Config
	logger zerolog.Logger
}

// New creates a warmer.
func New(loader BatchLoader, config Config) *Warmer {
	if loader == nil {
		panic("warmup: loader cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Warmer{
		loader: loader,
		config: config,
		logger: log.With().Str("component", "cache-warmup").Logger(),
	}
}

type jobResult struct {
	job Job
	err error
}

// Warm loads reload indices [0, batches) of every request.
// It returns an error only when ctx ends before all jobs ran.
func (w *Warmer) Warm(ctx context.Context, requestIDs []string, batches int) (Summary, error) {
	start := time.Now()
	if batches <= 0 || len(requestIDs) == 0 {
		return Summary{}, nil
	}

	total := len(requestIDs) * batches
	jobs := make(chan Job, total)
	for _, id := range requestIDs {
		for i := 0; i < batches; i++ {
			jobs <- Job{RequestID: id, ReloadIndex: i}
		}
	}
	close(jobs)

	w.logger.Info().
		Int("requests", len(requestIDs)).
		Int("batches", total).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting cache warm-up")

	results := make(chan jobResult, total)
	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, jobs, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := Summary{}
	for res := range results {
		if res.err != nil {
			summary.Failed = append(summary.Failed, res.job)
			continue
		}
		summary.Warmed++
	}
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil && summary.Warmed+len(summary.Failed) < total {
		return summary, fmt.Errorf("warm-up interrupted (%d/%d batches): %w", summary.Warmed, total, err)
	}

	w.logger.Info().
		Int("warmed", summary.Warmed).
		Int("failed", len(summary.Failed)).
		Dur("duration", summary.Duration).
		Msg("Cache warm-up complete")

	return summary, nil
}

// worker processes jobs from the queue.
func (w *Warmer) worker(ctx context.Context, jobs <-chan Job, results chan<- jobResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for job := range jobs {
		select {
		case <-ctx.Done():
			w.logger.Debug().
				Int("worker_id", workerID).
				Int("batches_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		err := w.loader.WarmBatch(jobCtx, job.RequestID, job.ReloadIndex)
		cancel()

		if err != nil {
			w.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("request_id", job.RequestID).
				Int("reload_index", job.ReloadIndex).
				Msg("Batch warm-up failed")
		}

		results <- jobResult{job: job, err: err}
		processed++
	}

	if processed > 0 {
		w.logger.Debug().
			Int("worker_id", workerID).
			Int("batches_processed", processed).
			Msg("Worker completed")
	}
}
