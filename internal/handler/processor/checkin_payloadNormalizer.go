package processor

import (
	"log/slog"
	"net/http"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/payload"
	"github.com/pkg/errors"
)

// Response messages of the normalisation step.
const (
	InvalidJSONMessage    = "Invalid JSON"
	InvalidFormatMessage  = "Webhook invalid format."
	NoResultsMessage      = "No data_collection_results."
	MissingPatientMessage = "Patient name could not be extracted."
)

type payloadNormalizerProcessor struct {
	logger *slog.Logger
}

// NewPayloadNormalizerProcessor creates a processor that extracts the CheckInRecord from the delivery body.
func NewPayloadNormalizerProcessor(opts ...Option) Processor {
	_inst := &payloadNormalizerProcessor{logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *payloadNormalizerProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:normalizer")
}

func (p *payloadNormalizerProcessor) Process(req any) (*checkin.Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}

	record, err := payload.NewNormalizer(payload.WithLogger(p.logger)).Normalize(bus.Body)
	switch {
	case err == nil:
		bus.Record = record
		return bus, nil
	case errors.Is(err, payload.ErrMissingData):
		p.logger.Info("data object missing or invalid")
		bus.Finish(checkin.Skipped, InvalidFormatMessage)
		return bus, nil
	case errors.Is(err, payload.ErrNothingToDo):
		p.logger.Info("no data_collection_results found")
		bus.Finish(checkin.Skipped, NoResultsMessage)
		return bus, nil
	case errors.Is(err, payload.ErrInvalidJSON):
		p.logger.Warn("rejecting unparsable body", slog.Any("error", err))
		bus.Fail(http.StatusBadRequest, InvalidJSONMessage)
		return bus, checkin.NewPipelineError(checkin.KindParseError, http.StatusBadRequest, err)
	case errors.Is(err, payload.ErrMissingPatientName):
		bus.Fail(http.StatusBadRequest, MissingPatientMessage)
		return bus, checkin.NewPipelineError(checkin.KindValidationError, http.StatusBadRequest, err)
	default:
		return bus, checkin.NewInternalErrorf("unexpected normalisation error: %v", err)
	}
}
