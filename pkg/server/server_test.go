package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/Sternrassler/request-responses/pkg/cache"
	"github.com/Sternrassler/request-responses/pkg/pager"
	"github.com/Sternrassler/request-responses/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("response %d", i)
	}
	return out
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Append(context.Context, string, ...string) error { return errors.New("store down") }
func (failingStore) Count(context.Context, string) (int, error) { return 0, errors.New("store down") }
func (failingStore) Range(context.Context, string, int, int) ([]string, error) {
	return nil, errors.New("store down")
}
func (failingStore) Close() error { return nil }

func newTestServer(t *testing.T, st store.Store, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	srv, err := New(st, DefaultConfig(), opts...)
	require.NoError(t, err)
	return srv
}

func seededServer(t *testing.T, requestID string, n int, opts ...Option) *Server {
	t.Helper()
	srv := newTestServer(t, store.NewMemory(), opts...)
	require.NoError(t, srv.AddResponses(context.Background(), requestID, numbered(n)...))
	return srv
}

func postResponses(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, api.ResponsesPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) api.Payload {
	t.Helper()
	var payload api.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Increment = 0
	_, err = New(store.NewMemory(), cfg)
	assert.EqualError(t, err, "increment must be >= 1 (got 0)")
}

func TestResponses_CumulativeBatches(t *testing.T) {
	srv := seededServer(t, api.DefaultRequestID, 45)
	h := srv.Handler()

	tests := []struct {
		reloadIndex string
		wantLen     int
		wantMore    bool
	}{
		{reloadIndex: "", wantLen: 20, wantMore: true},
		{reloadIndex: "0", wantLen: 20, wantMore: true},
		{reloadIndex: "1", wantLen: 40, wantMore: true},
		{reloadIndex: "2", wantLen: 45, wantMore: false},
		{reloadIndex: "9", wantLen: 45, wantMore: false},
	}

	for _, tt := range tests {
		t.Run("reload="+tt.reloadIndex, func(t *testing.T) {
			rec := postResponses(t, h, url.Values{api.FieldReloadIndex: {tt.reloadIndex}})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			payload := decodePayload(t, rec)
			assert.Equal(t, numbered(45)[:tt.wantLen], payload.Responses)
			require.NotNil(t, payload.HasMore)
			assert.Equal(t, tt.wantMore, *payload.HasMore)
		})
	}
}

func TestResponses_SelectsRequest(t *testing.T) {
	srv := seededServer(t, "FOIL-1", 3)
	h := srv.Handler()

	rec := postResponses(t, h, url.Values{
		api.FieldReloadIndex: {"0"},
		api.FieldRequestID:   {"FOIL-1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodePayload(t, rec).Responses, 3)

	rec = postResponses(t, h, url.Values{api.FieldReloadIndex: {"0"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"request_responses": [], "has_more": false}`, rec.Body.String())
}

func TestResponses_RejectsBadReloadIndex(t *testing.T) {
	h := seededServer(t, api.DefaultRequestID, 5).Handler()

	for _, raw := range []string{"abc", "-1", "1.5"} {
		rec := postResponses(t, h, url.Values{api.FieldReloadIndex: {raw}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "reload index %q", raw)
	}
}

func TestResponses_MethodNotAllowed(t *testing.T) {
	h := seededServer(t, api.DefaultRequestID, 5).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.ResponsesPath, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestResponses_StoreFailure(t *testing.T) {
	h := newTestServer(t, failingStore{}).Handler()

	rec := postResponses(t, h, url.Values{api.FieldReloadIndex: {"0"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseReloadIndex(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: " 3 ", want: 3},
		{raw: "0", want: 0},
		{raw: "-2", wantErr: true},
		{raw: "x", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseReloadIndex(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "raw %q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, store.NewMemory()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		store  store.Store
		status int
	}{
		{name: "store answers", store: store.NewMemory(), status: http.StatusOK},
		{name: "store down", store: failingStore{}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.store).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := seededServer(t, api.DefaultRequestID, 5).Handler()
	postResponses(t, h, url.Values{api.FieldReloadIndex: {"0"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "responses_server_requests_total")
}

func TestView_RendersFirstWindow(t *testing.T) {
	h := seededServer(t, "FOIL-7", 25).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ViewPath+"FOIL-7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("X-Responses-Total"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)

	rows := doc.Find("#" + pager.TableElementID + " tbody tr")
	assert.Equal(t, 10, rows.Length())
	assert.Equal(t, "response 0", strings.TrimSuffix(strings.TrimSpace(rows.First().Find("td").Text()), "Edit"))

	loadMore := doc.Find("." + pager.LoadMoreClass)
	require.Equal(t, 1, loadMore.Length())
	style, _ := loadMore.Attr("style")
	assert.Contains(t, style, "display: none")
}

func TestView_StoreFailure(t *testing.T) {
	h := newTestServer(t, failingStore{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ViewPath+"FOIL-7", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// setupTestRedis connects to a local Redis and skips when none is reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestResponses_WritesThroughCache(t *testing.T) {
	rdb := setupTestRedis(t)
	manager := cache.NewManager(rdb)
	srv := seededServer(t, "FOIL-1", 30, WithCache(manager))
	h := srv.Handler()
	ctx := context.Background()

	form := url.Values{api.FieldReloadIndex: {"0"}, api.FieldRequestID: {"FOIL-1"}}
	first := postResponses(t, h, form)
	require.Equal(t, http.StatusOK, first.Code)

	key := cache.CacheKey{RequestID: "FOIL-1", ReloadIndex: 0, Increment: api.ResponsesIncrement}
	entry, err := manager.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, first.Body.String(), string(entry.Data))

	// a cached batch is served even though the store has grown
	require.NoError(t, srv.store.Append(ctx, "FOIL-1", "late"))
	second := postResponses(t, h, form)
	assert.Equal(t, first.Body.String(), second.Body.String())

	// AddResponses invalidates cached batches
	require.NoError(t, srv.AddResponses(ctx, "FOIL-1", "later"))
	_, err = manager.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	third := postResponses(t, h, url.Values{api.FieldReloadIndex: {"1"}, api.FieldRequestID: {"FOIL-1"}})
	payload := decodePayload(t, third)
	assert.Len(t, payload.Responses, 32)
	assert.Equal(t, "later", payload.Responses[31])
	require.NotNil(t, payload.HasMore)
	assert.False(t, *payload.HasMore)
}

func TestWarmBatch_WithoutCache(t *testing.T) {
	srv := seededServer(t, "FOIL-1", 5)

	err := srv.WarmBatch(context.Background(), "FOIL-1", 0)

	assert.ErrorIs(t, err, ErrNoCache)
}

func TestWarmBatch_FillsCache(t *testing.T) {
	manager := cache.NewManager(setupTestRedis(t))
	srv := seededServer(t, "FOIL-1", 50, WithCache(manager))
	ctx := context.Background()

	require.NoError(t, srv.WarmBatch(ctx, "FOIL-1", 1))

	entry, err := manager.Get(ctx, cache.CacheKey{RequestID: "FOIL-1", ReloadIndex: 1, Increment: api.ResponsesIncrement})
	require.NoError(t, err)

	var payload api.Payload
	require.NoError(t, json.Unmarshal(entry.Data, &payload))
	assert.Len(t, payload.Responses, 40)
}
