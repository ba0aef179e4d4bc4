// Package server serves request responses in cumulative batches over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/Sternrassler/request-responses/pkg/cache"
	"github.com/Sternrassler/request-responses/pkg/metrics"
	"github.com/Sternrassler/request-responses/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the server configuration.
type Config struct {
	// Increment is the number of responses each reload adds to a batch.
	Increment int

	// CacheTTL is how long encoded batches stay cached. Ignored without a cache.
	CacheTTL time.Duration

	// ReadyTimeout bounds the readiness probe.
	ReadyTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Increment:    api.ResponsesIncrement,
		CacheTTL:     30 * time.Second,
		ReadyTimeout: 2 * time.Second,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithCache serves batches through a Redis cache.
func WithCache(manager *cache.Manager) Option {
	return func(s *Server) {
		s.cache = manager
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server serves the responses endpoint and its operational endpoints.
type Server struct {
	store  store.Store
	cache  *cache.Manager
	config Config
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New creates a server backed by st.
func New(st store.Store, cfg Config, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Increment < 1 {
		return nil, fmt.Errorf("increment must be >= 1 (got %d)", cfg.Increment)
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}

	s := &Server{
		store:  st,
		config: cfg,
		logger: log.With().Str("component", "responses-server").Logger(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc(api.ResponsesPath, s.handleResponses)
	s.mux.HandleFunc("GET "+ViewPath+"{request_id}", s.handleView)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", metrics.Handler())

	return s, nil
}

// Handler returns the server's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// AddResponses appends responses to a request and drops its cached batches.
func (s *Server) AddResponses(ctx context.Context, requestID string, contents ...string) error {
	if err := s.store.Append(ctx, requestID, contents...); err != nil {
		return fmt.Errorf("append responses: %w", err)
	}

	if s.cache != nil {
		removed, err := s.cache.Invalidate(ctx, requestID)
		if err != nil {
			s.logger.Warn().Err(err).Str("request_id", requestID).Msg("Cache invalidation failed")
		} else if removed > 0 {
			s.logger.Debug().Str("request_id", requestID).Int("removed", removed).Msg("Invalidated cached batches")
		}
	}

	s.logger.Info().
		Str("request_id", requestID).
		Int("responses", len(contents)).
		Msg("Responses added")
	return nil
}

// ErrNoCache is returned by WarmBatch when the server has no cache.
var ErrNoCache = errors.New("server has no cache")

// WarmBatch loads one batch into the cache. It satisfies warmup.BatchLoader.
func (s *Server) WarmBatch(ctx context.Context, requestID string, reloadIndex int) error {
	if s.cache == nil {
		return ErrNoCache
	}
	_, _, err := s.batchJSON(ctx, requestID, reloadIndex)
	return err
}

// handleResponses serves POST /request/api/v1.0/responses.
func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	reloadIndex, err := parseReloadIndex(r.PostForm.Get(api.FieldReloadIndex))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected reload index")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := strings.TrimSpace(r.PostForm.Get(api.FieldRequestID))
	if requestID == "" {
		requestID = api.DefaultRequestID
	}

	body, cacheHit, err := s.batchJSON(r.Context(), requestID, reloadIndex)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Int("reload_index", reloadIndex).
			Msg("Failed to load responses")
		http.Error(w, "failed to load responses", http.StatusInternalServerError)
		return
	}

	s.logger.Debug().
		Str("request_id", requestID).
		Int("reload_index", reloadIndex).
		Bool("cache_hit", cacheHit).
		Msg("Served responses batch")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// parseReloadIndex reads the posted reload index. Empty means 0.
func parseReloadIndex(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got %q)", api.FieldReloadIndex, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must be >= 0 (got %d)", api.FieldReloadIndex, n)
	}
	return n, nil
}

// batchJSON returns the encoded batch, serving from and filling the cache when configured.
func (s *Server) batchJSON(ctx context.Context, requestID string, reloadIndex int) ([]byte, bool, error) {
	key := cache.CacheKey{
		RequestID:   requestID,
		ReloadIndex: reloadIndex,
		Increment:   s.config.Increment,
	}

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			return entry.Data, true, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed, using store")
		}
	}

	payload, err := s.loadPayload(ctx, requestID, reloadIndex)
	if err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode batch: %w", err)
	}

	if s.cache != nil && s.config.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, cache.NewEntry(body, s.config.CacheTTL)); err != nil {
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
		}
	}

	return body, false, nil
}

// loadPayload slices a cumulative batch from the store.
func (s *Server) loadPayload(ctx context.Context, requestID string, reloadIndex int) (api.Payload, error) {
	batch, err := store.LoadBatch(ctx, s.store, requestID, reloadIndex, s.config.Increment)
	if err != nil {
		return api.Payload{}, err
	}

	responses := batch.Responses
	if responses == nil {
		responses = []string{}
	}
	batchSize.Observe(float64(len(responses)))

	return api.Payload{
		Responses: responses,
		HasMore:   api.Bool(batch.HasMore),
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.ReadyTimeout)
	defer cancel()

	if _, err := s.store.Count(ctx, api.DefaultRequestID); err != nil {
		s.logger.Error().Err(err).Msg("Store not ready")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Cache not ready")
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "READY")
}
