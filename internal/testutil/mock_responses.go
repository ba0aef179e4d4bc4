// Package testutil provides testing utilities for the responses client and pager.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/request-responses/pkg/api"
)

// MockResponse defines a canned reply of the mock server.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockResponses is a configurable mock responses server for testing.
// By default it serves cumulative batches of Responses, Increment at a time.
type MockResponses struct {
	server *httptest.Server

	mu        sync.RWMutex
	responses []string
	increment int
	overrides []MockResponse

	// Tracking
	reloadIndices []int
	requestIDs    []string
	lastHeader    http.Header
}

// NewMockResponses creates a mock server holding responses.
func NewMockResponses(responses []string) *MockResponses {
	mock := &MockResponses{
		responses: append([]string(nil), responses...),
		increment: api.ResponsesIncrement,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(api.ResponsesPath, mock.handle)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the mock server URL.
func (m *MockResponses) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockResponses) Close() {
	m.server.Close()
}

// SetIncrement sets the batch growth per reload index.
func (m *MockResponses) SetIncrement(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increment = n
}

// QueueResponse queues canned replies served before normal batches, in order.
func (m *MockResponses) QueueResponse(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = append(m.overrides, resps...)
}

// ReloadIndices returns the reload indices received, in order.
func (m *MockResponses) ReloadIndices() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.reloadIndices...)
}

// RequestIDs returns the request ids received, in order.
func (m *MockResponses) RequestIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requestIDs...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockResponses) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reloadIndices)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockResponses) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func (m *MockResponses) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	reloadIndex, err := strconv.Atoi(r.PostForm.Get(api.FieldReloadIndex))
	if err != nil {
		reloadIndex = -1
	}

	m.mu.Lock()
	m.reloadIndices = append(m.reloadIndices, reloadIndex)
	m.requestIDs = append(m.requestIDs, r.PostForm.Get(api.FieldRequestID))
	m.lastHeader = r.Header.Clone()

	var override *MockResponse
	if len(m.overrides) > 0 {
		override = &m.overrides[0]
		m.overrides = m.overrides[1:]
	}
	payload := m.batchLocked(reloadIndex)
	m.mu.Unlock()

	if override != nil {
		writeMock(w, *override)
		return
	}

	if reloadIndex < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (m *MockResponses) batchLocked(reloadIndex int) api.Payload {
	end := (reloadIndex + 1) * m.increment
	if end > len(m.responses) {
		end = len(m.responses)
	}
	if end < 0 {
		end = 0
	}
	return api.Payload{
		Responses: append([]string{}, m.responses[:end]...),
		HasMore:   api.Bool(end < len(m.responses)),
	}
}

func writeMock(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error": "Bad request"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewMalformedResponse creates a 200 response whose body is not a payload.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"responses": "nope"`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewPayloadResponse creates a 200 response carrying payload.
func NewPayloadResponse(payload api.Payload) MockResponse {
	body, _ := json.Marshal(payload)
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
