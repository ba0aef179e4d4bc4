package cache

import (
	"fmt"
	"strings"
)

// KeyPrefix prefixes every batch key.
const KeyPrefix = "responses:batch"

// CacheKey identifies one cached batch.
type CacheKey struct {
	// RequestID is the request whose responses are batched
	RequestID string

	// ReloadIndex selects the cumulative batch
	ReloadIndex int

	// Increment is the batch growth per reload; batches of different increments differ
	Increment int
}

// String generates a deterministic cache key string.
// Format: responses:batch:<request_id>:inc=<increment>:reload=<reload_index>
//
// Example:
//
//	responses:batch:FOIL-2016-001:inc=20:reload=2
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:inc=%d:reload=%d", KeyPrefix, k.RequestID, k.Increment, k.ReloadIndex)
}

// globEscaper escapes Redis glob metacharacters.
var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// RequestPattern returns the SCAN pattern matching every batch of a request.
// Metacharacters in the id are escaped so the pattern never widens to other requests.
func RequestPattern(requestID string) string {
	return KeyPrefix + ":" + globEscaper.Replace(requestID) + ":inc=*"
}
