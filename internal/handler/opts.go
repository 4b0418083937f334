package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/handler/processor"
	"github.com/isometry/pro-checkin-webhook/internal/validation"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithContext sets the fallback context for the handler.
func WithContext(ctx context.Context) Option {
	return func(h *Handler) {
		h.ctx = ctx
	}
}

// WithClock sets the clock used for signature tolerance and entity dates.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithWebhookSecret configures the handler with a webhook secret for request validation.
// An empty secret disables verification.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) {
		h.webhookSecret = validation.NewWebhookSecret(secret)
	}
}

// WithSignatureRequired rejects every delivery with 500 when no secret is configured.
func WithSignatureRequired(required bool) Option {
	return func(h *Handler) {
		h.requireSignature = required
	}
}

// WithPatientDirectory sets the patient lookup collaborator.
func WithPatientDirectory(directory checkin.PatientDirectory) Option {
	return func(h *Handler) {
		h.directory = directory
	}
}

// WithObjectWriter sets the object store collaborator.
func WithObjectWriter(store checkin.ObjectWriter) Option {
	return func(h *Handler) {
		h.store = store
	}
}

// WithClassifier sets the text classification collaborator.
func WithClassifier(classifier checkin.TextClassifier) Option {
	return func(h *Handler) {
		h.classifier = classifier
	}
}

// WithArchive enables archiving verified deliveries to bucket under prefix.
func WithArchive(archiver processor.Archiver, bucket, prefix string) Option {
	return func(h *Handler) {
		h.archiver = archiver
		h.archiveBucket = bucket
		h.archivePrefix = prefix
	}
}

// WithLambdaPayloadType sets the lambda payload type for a Handler instance.
func WithLambdaPayloadType(payloadType string) Option {
	return func(h *Handler) {
		h.lambdaPayloadType = payloadType
	}
}
