// Package store persists request responses and slices them into the
// cumulative batches served by the responses endpoint.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidReloadIndex is returned for a negative reload index.
	ErrInvalidReloadIndex = errors.New("reload index must be >= 0")

	// ErrInvalidIncrement is returned for a batch increment < 1.
	ErrInvalidIncrement = errors.New("increment must be >= 1")
)

// Store holds the ordered responses of each request.
type Store interface {
	// Append adds responses to the end of a request's list.
	Append(ctx context.Context, requestID string, contents ...string) error

	// Count returns the number of responses stored for a request.
	Count(ctx context.Context, requestID string) (int, error)

	// Range returns responses [start, stop) of a request, clamped to the list.
	Range(ctx context.Context, requestID string, start, stop int) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Batch is a cumulative slice of a request's responses.
type Batch struct {
	Responses []string
	Total     int
	HasMore   bool
}

// LoadBatch returns the first (reloadIndex+1)*increment responses of a request.
func LoadBatch(ctx context.Context, s Store, requestID string, reloadIndex, increment int) (Batch, error) {
	if reloadIndex < 0 {
		return Batch{}, ErrInvalidReloadIndex
	}
	if increment < 1 {
		return Batch{}, ErrInvalidIncrement
	}

	total, err := s.Count(ctx, requestID)
	if err != nil {
		return Batch{}, fmt.Errorf("count responses: %w", err)
	}

	end := BatchEnd(reloadIndex, increment, total)
	responses, err := s.Range(ctx, requestID, 0, end)
	if err != nil {
		return Batch{}, fmt.Errorf("range responses: %w", err)
	}

	return Batch{
		Responses: responses,
		Total:     total,
		HasMore:   end < total,
	}, nil
}

// BatchEnd returns the exclusive end index of a cumulative batch.
func BatchEnd(reloadIndex, increment, total int) int {
	// guard against overflow on absurd reload indices
	if reloadIndex >= total/increment+1 {
		return total
	}
	end := (reloadIndex + 1) * increment
	if end > total {
		return total
	}
	return end
}

// clampRange bounds [start, stop) to a list of n items.
func clampRange(start, stop, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	if start > stop {
		start = stop
	}
	return start, stop
}
