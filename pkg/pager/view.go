package pager

import (
	"context"
	"strconv"
	"sync"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fetcher retrieves a batch of responses for a reload index.
type Fetcher interface {
	FetchResponses(ctx context.Context, reloadIndex int) (*api.Payload, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, reloadIndex int) (*api.Payload, error)

// FetchResponses implements Fetcher.
func (f FetcherFunc) FetchResponses(ctx context.Context, reloadIndex int) (*api.Payload, error) {
	return f(ctx, reloadIndex)
}

// ReloadPolicy decides how a load-more batch is combined with the loaded list.
type ReloadPolicy int

const (
	// ReplaceBatch replaces the loaded list with the fetched batch. This is the
	// right policy for servers that return a growing prefix of all responses.
	ReplaceBatch ReloadPolicy = iota

	// AppendBatch appends the fetched batch to the loaded list, for servers that
	// return disjoint batches.
	AppendBatch
)

// String returns the policy name.
func (p ReloadPolicy) String() string {
	switch p {
	case ReplaceBatch:
		return "replace"
	case AppendBatch:
		return "append"
	default:
		return "unknown"
	}
}

// Option configures a View.
type Option func(*View)

// WithWindowSize sets the number of responses per window. Values < 1 are ignored.
func WithWindowSize(size int) Option {
	return func(v *View) {
		if size > 0 {
			v.windowSize = size
		}
	}
}

// WithReloadPolicy sets how LoadMore combines batches.
func WithReloadPolicy(policy ReloadPolicy) Option {
	return func(v *View) {
		v.policy = policy
	}
}

// WithLogger sets the view logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

// State is a snapshot of the view state.
type State struct {
	WindowStart     int
	WindowSize      int
	ReloadIndex     int
	Len             int
	Loaded          bool
	LoadMoreVisible bool
	// HasMore is the server's answer from the last applied batch, nil if unknown.
	HasMore *bool
}

// View is a paged view over a list of responses.
type View struct {
	fetcher    Fetcher
	surface    Surface
	logger     zerolog.Logger
	windowSize int
	policy     ReloadPolicy

	mu              sync.Mutex
	responses       []string
	windowStart     int
	reloadIndex     int
	seq             uint64
	loaded          bool
	hasMore         *bool
	loadMoreVisible bool
}

// New creates a view that fetches through fetcher and displays on surface.
func New(fetcher Fetcher, surface Surface, opts ...Option) *View {
	if fetcher == nil {
		panic("pager: fetcher cannot be nil")
	}
	if surface == nil {
		panic("pager: surface cannot be nil")
	}

	v := &View{
		fetcher:    fetcher,
		surface:    surface,
		logger:     log.With().Str("component", "responses-view").Logger(),
		windowSize: DefaultWindowSize,
		policy:     ReplaceBatch,
	}
	for _, opt := range opts {
		opt(v)
	}

	surface.SetLoadMoreVisible(false)
	return v
}

// Initialize fetches the first batch and shows the first window.
// On failure the error is logged, the view is left as it was and a *FetchError
// is returned.
func (v *View) Initialize(ctx context.Context) error {
	v.mu.Lock()
	v.reloadIndex = 0
	seq := v.nextSeqLocked()
	v.mu.Unlock()

	payload, err := v.fetcher.FetchResponses(ctx, 0)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		return v.discardLocked("initialize", 0, seq)
	}
	if err != nil {
		return v.failLocked("initialize", 0, err)
	}

	v.responses = cloneStrings(payloadResponses(payload))
	v.hasMore = payloadHasMore(payload)
	v.windowStart = 0
	v.loaded = true
	v.renderLocked()

	viewFetchesTotal.WithLabelValues("initialize", "ok").Inc()
	v.logger.Debug().
		Int("responses", len(v.responses)).
		Msg("Responses loaded")

	return nil
}

// ShowPrevious moves the window back by one window size unless it is at the start.
func (v *View) ShowPrevious() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded {
		return
	}

	moved := false
	if v.windowStart != 0 {
		v.windowStart -= v.windowSize
		moved = true
		v.renderLocked()
	}
	v.updateLoadMoreLocked()

	viewNavigationsTotal.WithLabelValues("previous", strconv.FormatBool(moved)).Inc()
}

// ShowNext moves the window forward by one window size unless it shows the last
// loaded window.
func (v *View) ShowNext() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded {
		return
	}

	moved := false
	if !v.atLastWindowLocked() {
		v.windowStart += v.windowSize
		moved = true
		v.renderLocked()
	}
	v.updateLoadMoreLocked()

	viewNavigationsTotal.WithLabelValues("next", strconv.FormatBool(moved)).Inc()
}

// LoadMore requests the next batch and re-renders the current window from it.
// The load-more control is hidden immediately. The reload index is not rolled
// back when the fetch fails.
func (v *View) LoadMore(ctx context.Context) error {
	v.mu.Lock()
	v.reloadIndex++
	reloadIndex := v.reloadIndex
	seq := v.nextSeqLocked()
	v.setLoadMoreLocked(false)
	v.mu.Unlock()

	v.logger.Debug().
		Int("reload_index", reloadIndex).
		Msg("Loading more responses")

	payload, err := v.fetcher.FetchResponses(ctx, reloadIndex)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		return v.discardLocked("load_more", reloadIndex, seq)
	}
	if err != nil {
		return v.failLocked("load_more", reloadIndex, err)
	}

	batch := payloadResponses(payload)
	switch v.policy {
	case AppendBatch:
		v.responses = append(v.responses, batch...)
	default:
		v.responses = cloneStrings(batch)
	}
	v.hasMore = payloadHasMore(payload)
	v.loaded = true
	v.windowStart = clampStart(v.windowStart, len(v.responses), v.windowSize)
	v.renderLocked()

	viewFetchesTotal.WithLabelValues("load_more", "ok").Inc()
	v.logger.Debug().
		Int("reload_index", reloadIndex).
		Int("responses", len(v.responses)).
		Str("policy", v.policy.String()).
		Msg("More responses loaded")

	return nil
}

// State returns a snapshot of the view state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	var hasMore *bool
	if v.hasMore != nil {
		hasMore = api.Bool(*v.hasMore)
	}

	return State{
		WindowStart:     v.windowStart,
		WindowSize:      v.windowSize,
		ReloadIndex:     v.reloadIndex,
		Len:             len(v.responses),
		Loaded:          v.loaded,
		LoadMoreVisible: v.loadMoreVisible,
		HasMore:         hasMore,
	}
}

// Window returns the window currently displayed.
func (v *View) Window() Window {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Render(v.responses, v.windowStart, v.windowSize)
}

func (v *View) nextSeqLocked() uint64 {
	v.seq++
	return v.seq
}

func (v *View) atLastWindowLocked() bool {
	return v.windowStart+v.windowSize >= len(v.responses)
}

// updateLoadMoreLocked shows the load-more control on the last loaded window
// unless the server said nothing more exists.
func (v *View) updateLoadMoreLocked() {
	more := v.hasMore == nil || *v.hasMore
	v.setLoadMoreLocked(v.atLastWindowLocked() && more)
}

func (v *View) setLoadMoreLocked(visible bool) {
	v.loadMoreVisible = visible
	v.surface.SetLoadMoreVisible(visible)
}

func (v *View) renderLocked() {
	v.surface.ShowWindow(Render(v.responses, v.windowStart, v.windowSize))
}

func (v *View) discardLocked(operation string, reloadIndex int, seq uint64) error {
	viewFetchesTotal.WithLabelValues(operation, "superseded").Inc()
	viewFetchesDiscarded.Inc()
	v.logger.Debug().
		Str("operation", operation).
		Int("reload_index", reloadIndex).
		Uint64("seq", seq).
		Uint64("latest_seq", v.seq).
		Msg("Discarding superseded fetch")
	return ErrSuperseded
}

func (v *View) failLocked(operation string, reloadIndex int, err error) error {
	viewFetchesTotal.WithLabelValues(operation, "error").Inc()
	v.logger.Error().
		Err(err).
		Str("operation", operation).
		Int("reload_index", reloadIndex).
		Msg("Failed to fetch responses")
	return &FetchError{ReloadIndex: reloadIndex, Err: err}
}

func payloadResponses(p *api.Payload) []string {
	if p == nil {
		return nil
	}
	return p.Responses
}

func payloadHasMore(p *api.Payload) *bool {
	if p == nil || p.HasMore == nil {
		return nil
	}
	return api.Bool(*p.HasMore)
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
