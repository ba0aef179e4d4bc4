// Package cache caches encoded response batches in Redis.
//
// The responses endpoint serves cumulative batches, so one request's batches
// overlap heavily and are cheap to cache per reload index. Entries expire on
// their own TTL and are dropped as a group when a request gains responses.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{RequestID: "FOIL-2016-001", ReloadIndex: 1, Increment: 20}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// build the batch, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, time.Minute))
//	}
//
//	// after appending responses to FOIL-2016-001
//	_, _ = manager.Invalidate(ctx, "FOIL-2016-001")
//
// # Metrics
//
//   - responses_cache_hits_total{layer="redis"} - Cache hits
//   - responses_cache_misses_total - Cache misses
//   - responses_cache_size_bytes{layer="redis"} - Bytes written to the cache
//   - responses_cache_invalidated_keys_total - Batches removed by invalidation
//   - responses_cache_errors_total{operation} - Cache operation errors
package cache
