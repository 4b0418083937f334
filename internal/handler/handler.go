// Package handler wires the check-in processors into a single webhook handler.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/handler/processor"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/models"
	"github.com/isometry/pro-checkin-webhook/internal/validation"
)

// InternalErrorMessage is the response message for unclassified failures.
const InternalErrorMessage = "Internal server error"

// Option is a functional option for the Handler.
type Option func(*Handler)

// Handler processes post-call webhook deliveries.
type Handler struct {
	ctx    context.Context
	logger *slog.Logger
	now    func() time.Time

	webhookSecret    *validation.WebhookSecret
	requireSignature bool

	directory  checkin.PatientDirectory
	store      checkin.ObjectWriter
	classifier checkin.TextClassifier

	archiver      processor.Archiver
	archiveBucket string
	archivePrefix string

	lambdaPayloadType string
}

// NewHandler creates a Handler. Collaborators left unset degrade gracefully: no directory means
// every patient is unresolved, no classifier means no enrichment, no archiver means no archive.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{}
	for _, opt := range options {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.now == nil {
		_inst.now = time.Now
	}
	return _inst, nil
}

// VerificationEnabled reports whether deliveries are signature checked.
func (h *Handler) VerificationEnabled() bool {
	return h.webhookSecret != nil
}

// EnrichmentEnabled reports whether free text is classified.
func (h *Handler) EnrichmentEnabled() bool {
	return h.classifier != nil
}

// GetLambdaPayloadType returns the configured Lambda payload type.
func (h *Handler) GetLambdaPayloadType() string {
	return h.lambdaPayloadType
}

// processors builds the main chain. Processors hold a per-request logger, so each delivery gets its own.
func (h *Handler) processors() []processor.Processor {
	return []processor.Processor{
		processor.NewAuthValidatorProcessor(h.webhookSecret,
			processor.WithClock(h.now),
			processor.WithSignatureRequired(h.requireSignature)),
		processor.NewPayloadNormalizerProcessor(),
		processor.NewEnricherProcessor(h.classifier),
		processor.NewPatientResolverProcessor(h.directory),
		processor.NewEntityWriterProcessor(h.store, processor.WithWriterClock(h.now)),
	}
}

func (h *Handler) postProcessors() []processor.Processor {
	return []processor.Processor{
		processor.NewS3ArchiverPostProcessor(h.archiver, h.archiveBucket, h.archivePrefix),
	}
}

// Process runs one delivery through the chain. The returned bus always carries a response;
// the error, when set, explains a non-200 response.
func (h *Handler) Process(ctx context.Context, body []byte, headers map[string]string) (*checkin.Bus, error) {
	if ctx == nil {
		ctx = h.ctx
	}
	id := uuid.NewString()
	logger := h.logger.With(slog.String("id", id))
	logger.Info("processing request...")

	req := &processor.AuthRequest{
		Request:    models.Request{Body: body, Headers: headers},
		Context:    ctx,
		ID:         id,
		ReceivedAt: h.now(),
	}
	bus, err := processor.Process(logger, req, h.processors()...)
	if bus == nil {
		bus = &checkin.Bus{Context: ctx, ID: id, ReceivedAt: req.ReceivedAt, Body: body, Headers: headers}
	}
	if err != nil && bus.Response.StatusCode == 0 {
		bus.Fail(checkin.StatusCode(err), InternalErrorMessage)
	}
	if err == nil && bus.Response.StatusCode == 0 {
		err = checkin.NewInternalErrorf("processor chain ended without a response")
		bus.Fail(http.StatusInternalServerError, InternalErrorMessage)
	}

	for _, p := range h.postProcessors() {
		p.SetLogger(logger)
		if _, pErr := p.Process(bus); pErr != nil {
			logger.Warn("post-processor failed", slog.Any("error", pErr))
		}
	}

	if err != nil {
		logger.Warn("request rejected", slog.Any("bus", bus), slog.Int("statusCode", bus.Response.StatusCode), slog.Any("error", err))
	} else {
		logger.Info("request processed", slog.Any("bus", bus), slog.String("message", bus.Response.Message))
	}
	return bus, err
}
