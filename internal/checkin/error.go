package checkin

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	// KindConfigError is a server-side misconfiguration.
	KindConfigError ErrorKind = "config"
	// KindAuthError is a rejected signature.
	KindAuthError ErrorKind = "auth"
	// KindParseError is a body that is not a JSON object.
	KindParseError ErrorKind = "parse"
	// KindValidationError is a missing required field.
	KindValidationError ErrorKind = "validation"
	// KindNotFoundError is an unresolved patient.
	KindNotFoundError ErrorKind = "not_found"
	// KindWriteError is a rejected or failed object store write.
	KindWriteError ErrorKind = "write"
	// KindEnrichmentError is a failed classification call.
	KindEnrichmentError ErrorKind = "enrichment"
)

// PipelineError is a classified failure raised by a processor.
type PipelineError struct {
	Kind       ErrorKind
	StatusCode int
	Cause      error
}

func (m *PipelineError) Error() string {
	return fmt.Sprintf("%s error: %v", m.Kind, m.Cause)
}

func (m *PipelineError) Unwrap() error {
	return m.Cause
}

// NewPipelineError wraps cause with a kind and the HTTP status it maps to.
func NewPipelineError(kind ErrorKind, statusCode int, cause error) error {
	return &PipelineError{Kind: kind, StatusCode: statusCode, Cause: cause}
}

// NewInternalErrorf reports a programming error in the pipeline wiring.
func NewInternalErrorf(format string, args ...any) error {
	return &PipelineError{Kind: KindConfigError, StatusCode: http.StatusInternalServerError, Cause: errors.Errorf(format, args...)}
}

// StatusCode extracts the HTTP status carried by err, defaulting to 500.
func StatusCode(err error) int {
	var pErr *PipelineError
	if errors.As(err, &pErr) && pErr.StatusCode != 0 {
		return pErr.StatusCode
	}
	return http.StatusInternalServerError
}
