package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/Sternrassler/request-responses/pkg/pager"
)

// ViewPath prefixes the server-rendered responses page of a request.
const ViewPath = "/request/view/"

// handleView renders the first window of a request's responses as an HTML fragment,
// the same markup the pager produces client side.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")

	fetcher := pager.FetcherFunc(func(ctx context.Context, reloadIndex int) (*api.Payload, error) {
		payload, err := s.loadPayload(ctx, requestID, reloadIndex)
		if err != nil {
			return nil, err
		}
		return &payload, nil
	})

	doc := pager.NewDocument()
	view := pager.New(fetcher, doc, pager.WithLogger(s.logger))
	if err := view.Initialize(r.Context()); err != nil {
		http.Error(w, "failed to load responses", http.StatusInternalServerError)
		return
	}

	page, err := doc.HTML()
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to render responses")
		http.Error(w, "failed to render responses", http.StatusInternalServerError)
		return
	}

	state := view.State()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Responses-Total", strconv.Itoa(state.Len))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write page")
	}
}
