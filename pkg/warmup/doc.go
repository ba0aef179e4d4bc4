// Package warmup pre-populates the batch cache in parallel.
//
// The responses endpoint serves cumulative batches, so a cold cache pays a
// store round trip per (request, reload index). The warmer loads the first
// batches of a set of requests through a worker pool before traffic arrives.
//
// Example usage:
//
//	w := warmup.New(srv, warmup.DefaultConfig())
//	summary, err := w.Warm(ctx, []string{"default"}, 3)
//
// The warmer:
//   - Queues one job per request and reload index
//   - Spawns a worker pool (default 4 workers)
//   - Bounds each job with a timeout
//   - Keeps going past failed jobs and reports them in the summary
package warmup
