// Package api defines the wire contract of the request responses endpoint
// shared by the server, the HTTP client and the pager.
package api

// Endpoint and form field names.
const (
	// ResponsesPath is the endpoint serving batches of request responses.
	ResponsesPath = "/request/api/v1.0/responses"

	// FieldReloadIndex is the form field carrying the reload index.
	FieldReloadIndex = "request_responses_reload_index"

	// FieldRequestID is the optional form field selecting the request.
	FieldRequestID = "request_id"

	// DefaultRequestID is used when no request_id is posted.
	DefaultRequestID = "default"
)

// ResponsesIncrement is the number of responses each reload adds to a batch.
const ResponsesIncrement = 20

// Payload is the JSON body returned by the responses endpoint.
type Payload struct {
	// Responses is the ordered batch of response strings.
	Responses []string `json:"request_responses"`

	// HasMore reports whether the server holds responses beyond this batch.
	// Nil when the server does not say.
	HasMore *bool `json:"has_more,omitempty"`
}

// Bool returns a pointer to b, for building payloads.
func Bool(b bool) *bool {
	return &b
}
