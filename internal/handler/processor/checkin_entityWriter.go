package processor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/writer"
	"github.com/pkg/errors"
)

type entityWriterProcessor struct {
	logger *slog.Logger
	store  checkin.ObjectWriter
	now    func() time.Time
}

// WithWriterClock sets the clock used to date written entities.
func WithWriterClock(now func() time.Time) Option {
	return func(p Processor) {
		if v, ok := p.(*entityWriterProcessor); ok {
			v.now = now
		}
	}
}

// NewEntityWriterProcessor creates a processor that writes the PRO and Vitals entities.
// Write failures are reported in the response message and never change the status code.
func NewEntityWriterProcessor(store checkin.ObjectWriter, opts ...Option) Processor {
	_inst := &entityWriterProcessor{store: store, logger: helpers.NewNoopLogger(), now: time.Now}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *entityWriterProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:writer")
}

func (p *entityWriterProcessor) Process(req any) (*checkin.Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	if bus.Record == nil || bus.PatientID == "" {
		return bus, checkin.NewInternalErrorf("entity writes require a record and a resolved patient")
	}

	w := writer.NewWriter(writer.WithObjectWriter(p.store), writer.WithClock(p.now), writer.WithLogger(p.logger))
	ctx, record := bus.Ctx(), bus.Record
	var failures []string

	pro, err := w.WritePro(ctx, bus.PatientID, record.FreeText, bus.Enrichment.Sentiment, bus.Enrichment.Symptoms)
	bus.Outcomes = append(bus.Outcomes, pro)
	failures = appendFailure(failures, err)

	vitals, err := w.WriteVitals(ctx, bus.PatientID, record.Vitals)
	bus.Outcomes = append(bus.Outcomes, vitals)
	failures = appendFailure(failures, err)

	var message string
	if pro.Created || vitals.Created {
		message = fmt.Sprintf("Webhook processed for '%s'. Actions attempted.", record.PatientName)
	} else {
		message = fmt.Sprintf("Webhook processed for '%s', but no objects created.", record.PatientName)
	}
	if len(failures) > 0 {
		message += " Write failures: " + strings.Join(failures, "; ") + "."
	}

	p.logger.Info("writes complete",
		slog.Bool("proCreated", pro.Created), slog.Bool("proSkipped", pro.Skipped),
		slog.Bool("vitalsCreated", vitals.Created), slog.Bool("vitalsSkipped", vitals.Skipped),
		slog.Int("failures", len(failures)))
	bus.Finish(checkin.Success, message)
	return bus, nil
}

func appendFailure(failures []string, err error) []string {
	if err == nil {
		return failures
	}
	var wErr *writer.WriteError
	if errors.As(err, &wErr) {
		return append(failures, fmt.Sprintf("%s (%s)", wErr.Kind, wErr.Reason))
	}
	return append(failures, err.Error())
}
