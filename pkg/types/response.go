// Package types holds the wire envelopes shared by every membership API
// response.
package types

// SuccessEnvelope wraps successful payloads (overviews, created assignments,
// status acknowledgements) under a single "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details are only populated for codes
// whose metadata allows them, such as validation field maps or the orphaned
// persona left behind by a partial cascade.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under a single "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
