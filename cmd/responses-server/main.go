package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/Sternrassler/request-responses/pkg/cache"
	"github.com/Sternrassler/request-responses/pkg/logging"
	"github.com/Sternrassler/request-responses/pkg/server"
	"github.com/Sternrassler/request-responses/pkg/store"
	"github.com/Sternrassler/request-responses/pkg/warmup"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store backends selectable through STORE.
const (
	storeMemory = "memory"
	storeRedis  = "redis"
	storeSQLite = "sqlite"
)

type config struct {
	Port       string
	Store      string
	RedisURL   string
	SQLitePath string
	CacheTTL   time.Duration
	Increment  int
	LogLevel   logging.LogLevel
	LogPretty  bool
	Seed       int

	// WarmBatches is how many batches of each WarmRequests entry are cached at startup.
	WarmBatches  int
	WarmRequests []string
}

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("Failed to load .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// loadConfig reads the server configuration from the environment.
func loadConfig(getenv func(string) string) (config, error) {
	get := func(key, defaultValue string) string {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := config{
		Port:       get("PORT", "8080"),
		Store:      strings.ToLower(get("STORE", storeMemory)),
		RedisURL:   get("REDIS_URL", "localhost:6379"),
		SQLitePath: get("SQLITE_PATH", "responses.db"),
		LogPretty:  get("LOG_PRETTY", "false") == "true",
	}

	switch cfg.Store {
	case storeMemory, storeRedis, storeSQLite:
	default:
		return config{}, fmt.Errorf("STORE must be one of memory, redis, sqlite (got %q)", cfg.Store)
	}

	ttl, err := time.ParseDuration(get("CACHE_TTL", "0s"))
	if err != nil {
		return config{}, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if ttl < 0 {
		return config{}, fmt.Errorf("CACHE_TTL must be >= 0 (got %s)", ttl)
	}
	cfg.CacheTTL = ttl

	cfg.Increment, err = strconv.Atoi(get("RESPONSES_INCREMENT", strconv.Itoa(api.ResponsesIncrement)))
	if err != nil || cfg.Increment < 1 {
		return config{}, fmt.Errorf("RESPONSES_INCREMENT must be a positive integer")
	}

	cfg.Seed, err = strconv.Atoi(get("SEED_RESPONSES", "0"))
	if err != nil || cfg.Seed < 0 {
		return config{}, fmt.Errorf("SEED_RESPONSES must be a non-negative integer")
	}

	cfg.WarmBatches, err = strconv.Atoi(get("WARM_BATCHES", "0"))
	if err != nil || cfg.WarmBatches < 0 {
		return config{}, fmt.Errorf("WARM_BATCHES must be a non-negative integer")
	}
	for _, id := range strings.Split(get("WARM_REQUESTS", api.DefaultRequestID), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.WarmRequests = append(cfg.WarmRequests, id)
		}
	}

	cfg.LogLevel, err = logging.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// newRedisClient accepts either a redis:// URL or a bare host:port.
func newRedisClient(redisURL string) (*redis.Client, error) {
	if strings.Contains(redisURL, "://") {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// openStore opens the configured store. The returned Redis client is non-nil
// when the store or the cache needs one.
func openStore(ctx context.Context, cfg config) (store.Store, *redis.Client, error) {
	var redisClient *redis.Client
	if cfg.Store == storeRedis || cfg.CacheTTL > 0 {
		rc, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
		}
		log.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")
		redisClient = rc
	}

	switch cfg.Store {
	case storeRedis:
		return store.NewRedis(redisClient), redisClient, nil
	case storeSQLite:
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			if redisClient != nil {
				redisClient.Close()
			}
			return nil, nil, err
		}
		return st, redisClient, nil
	default:
		return store.NewMemory(), redisClient, nil
	}
}

// seedResponses fills an empty default request with n numbered responses.
func seedResponses(ctx context.Context, st store.Store, srv *server.Server, n int) error {
	if n == 0 {
		return nil
	}

	existing, err := st.Count(ctx, api.DefaultRequestID)
	if err != nil {
		return fmt.Errorf("count seeded responses: %w", err)
	}
	if existing > 0 {
		log.Info().Int("responses", existing).Msg("Store already seeded")
		return nil
	}

	contents := make([]string, n)
	for i := range contents {
		contents[i] = fmt.Sprintf("Response #%d", i+1)
	}
	return srv.AddResponses(ctx, api.DefaultRequestID, contents...)
}

func run(ctx context.Context, cfg config) error {
	st, redisClient, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Increment = cfg.Increment
	serverCfg.CacheTTL = cfg.CacheTTL

	opts := []server.Option{server.WithLogger(logging.NewLogger("responses-server"))}
	if cfg.CacheTTL > 0 {
		opts = append(opts, server.WithCache(cache.NewManager(redisClient)))
	}

	srv, err := server.New(st, serverCfg, opts...)
	if err != nil {
		return err
	}

	if err := seedResponses(ctx, st, srv, cfg.Seed); err != nil {
		return err
	}

	if cfg.CacheTTL > 0 && cfg.WarmBatches > 0 {
		summary, err := warmup.New(srv, warmup.DefaultConfig()).Warm(ctx, cfg.WarmRequests, cfg.WarmBatches)
		if err != nil {
			return err
		}
		if len(summary.Failed) > 0 {
			log.Warn().Int("failed", len(summary.Failed)).Msg("Some batches were not warmed")
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("store", cfg.Store).
			Dur("cache_ttl", cfg.CacheTTL).
			Int("increment", cfg.Increment).
			Msg("Starting responses server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down responses server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
