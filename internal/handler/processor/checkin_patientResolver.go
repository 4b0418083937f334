package processor

import (
	"fmt"
	"log/slog"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
)

type patientResolverProcessor struct {
	logger    *slog.Logger
	directory checkin.PatientDirectory
}

// NewPatientResolverProcessor creates a processor that resolves the patient name to an identifier.
// Unresolved patients end the chain with a 200 response.
func NewPatientResolverProcessor(directory checkin.PatientDirectory, opts ...Option) Processor {
	_inst := &patientResolverProcessor{directory: directory, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *patientResolverProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:resolver")
}

func (p *patientResolverProcessor) Process(req any) (*checkin.Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	if bus.Record == nil {
		return bus, checkin.NewInternalErrorf("patient resolution requires a check-in record")
	}
	name := bus.Record.PatientName
	logger := p.logger.With(slog.String("patient", name))

	var (
		id    string
		found bool
	)
	if p.directory == nil {
		logger.Warn("patient directory not configured")
	} else if id, found, err = p.directory.FindPatientByName(bus.Ctx(), name); err != nil {
		logger.Error("patient lookup failed", slog.Any("error", err))
		found = false
	}

	if !found || id == "" {
		logger.Warn("no unique patient found, no actions taken")
		bus.Finish(checkin.Skipped, fmt.Sprintf("Could not uniquely identify patient '%s'.", name))
		return bus, nil
	}

	bus.PatientID = id
	logger.Info("resolved patient", slog.String("patientID", id))
	return bus, nil
}
