package pager

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned when a fetch completed after a newer one was issued.
// Its result is discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// FetchError reports a failed fetch of the responses endpoint.
type FetchError struct {
	ReloadIndex int
	Err         error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch responses (reload index %d): %v", e.ReloadIndex, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
