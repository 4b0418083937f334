// Package checkin provides the request-scoped state and collaborator contracts of the check-in pipeline.
package checkin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/models"
)

// Bus represents the central data structure carried through the processors of one webhook delivery.
type Bus struct {
	// Context is the request-scoped context handed to collaborators.
	Context    context.Context
	ID         string
	ReceivedAt time.Time

	Body    []byte
	Headers map[string]string

	Verified    bool
	Record      *CheckInRecord
	PatientID   string
	Enrichment  EnrichmentResult
	Outcomes    []WriteOutcome
	EventStatus EventStatus

	Response models.Response
	Error    error
}

// EventStatus represents how far a delivery progressed.
type EventStatus string

const (
	// Pending is a delivery still moving through the chain.
	Pending EventStatus = ""
	// Success is a delivery whose writes were attempted.
	Success EventStatus = "success"
	// Skipped is a delivery that ended early without error (no data, unknown patient).
	Skipped EventStatus = "skipped"
	// Failure is a rejected delivery.
	Failure EventStatus = "failure"
)

// Halted reports whether the remaining processors of the main chain must be bypassed.
func (b *Bus) Halted() bool {
	return b.EventStatus == Skipped || b.EventStatus == Failure
}

// Finish stops the chain with a successful response.
func (b *Bus) Finish(status EventStatus, message string) {
	b.EventStatus = status
	b.Response = models.Response{Status: models.StatusSuccess, Message: message, StatusCode: http.StatusOK}
}

// Fail stops the chain with an error response.
func (b *Bus) Fail(statusCode int, message string) {
	b.EventStatus = Failure
	b.Response = models.Response{Status: models.StatusError, Message: message, StatusCode: statusCode}
}

// Ctx returns the request context, falling back to context.Background.
func (b *Bus) Ctx() context.Context {
	if b.Context == nil {
		return context.Background()
	}
	return b.Context
}

// LogValue generates a structured log value describing the delivery.
func (b *Bus) LogValue() slog.Value {
	logAttr := make([]slog.Attr, 0, 6)
	logAttr = append(logAttr, slog.String("id", b.ID), slog.Bool("verified", b.Verified))
	if b.EventStatus != Pending {
		logAttr = append(logAttr, slog.String("status", string(b.EventStatus)))
	}
	if b.Record != nil {
		logAttr = append(logAttr, slog.String("patient", b.Record.PatientName))
	}
	if b.PatientID != "" {
		logAttr = append(logAttr, slog.String("patientID", b.PatientID))
	}
	if len(b.Outcomes) > 0 {
		logAttr = append(logAttr, slog.Int("outcomes", len(b.Outcomes)))
	}
	return slog.GroupValue(logAttr...)
}
