// Package models provides the core data structures for handling webhook requests and responses.
package models

// Request represents an incoming webhook delivery: the raw body and its headers, keyed by lower-cased name.
type Request struct {
	Body    []byte
	Headers map[string]string
}

// Status is the coarse outcome reported in the response body.
type Status string

const (
	// StatusSuccess is reported for every handled webhook, including no-ops and partial failures.
	StatusSuccess Status = "success"
	// StatusError is reported when the webhook is rejected.
	StatusError Status = "error"
)

// Response defines the structure for an HTTP response containing a status, message, headers and a status code.
type Response struct {
	Status     Status
	Message    string
	Headers    map[string]string
	StatusCode int
}
