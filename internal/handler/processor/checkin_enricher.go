package processor

import (
	"log/slog"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/enrichment"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
)

type enricherProcessor struct {
	logger     *slog.Logger
	classifier checkin.TextClassifier
}

// NewEnricherProcessor creates a processor that attaches sentiment and symptoms to the bus.
// A nil classifier yields the neutral enrichment.
func NewEnricherProcessor(classifier checkin.TextClassifier, opts ...Option) Processor {
	_inst := &enricherProcessor{classifier: classifier, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *enricherProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:enricher")
}

func (p *enricherProcessor) Process(req any) (*checkin.Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	if bus.Record == nil {
		return bus, checkin.NewInternalErrorf("enrichment requires a check-in record")
	}

	opts := []enrichment.Option{enrichment.WithLogger(p.logger)}
	if p.classifier != nil {
		opts = append(opts, enrichment.WithClassifier(p.classifier))
	}
	bus.Enrichment = enrichment.NewEnricher(opts...).Enrich(bus.Ctx(), bus.Record.FreeText)

	attrs := []any{slog.Any("symptoms", bus.Enrichment.Symptoms)}
	if bus.Enrichment.Sentiment != nil {
		attrs = append(attrs, slog.String("sentiment", string(*bus.Enrichment.Sentiment)))
	}
	p.logger.Debug("enrichment complete", attrs...)
	return bus, nil
}
