// Package processor provides a generic interface for processing requests using a list of processors.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/models"
)

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is an interface that defines a method to process a request.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(any) (*checkin.Bus, error)
}

// AuthRequest is the entry request of the chain: a raw delivery awaiting signature verification.
type AuthRequest struct {
	models.Request
	Context    context.Context
	ID         string
	ReceivedAt time.Time
}

// Process runs req through processors in order. The chain stops at the first error
// or as soon as a processor halts the bus.
func Process(logger *slog.Logger, req any, processors ...Processor) (*checkin.Bus, error) {
	for _, p := range processors {
		p.SetLogger(logger)
		bus, err := p.Process(req)
		if err != nil || bus == nil {
			return bus, err
		}
		if bus.Halted() {
			return bus, nil
		}
		req = bus
	}
	bus, ok := req.(*checkin.Bus)
	if !ok {
		return nil, checkin.NewInternalErrorf("processor chain produced %T, expected *checkin.Bus", req)
	}
	return bus, nil
}

func asBus(req any) (*checkin.Bus, error) {
	bus, ok := req.(*checkin.Bus)
	if !ok {
		return nil, checkin.NewInternalErrorf("invalid request type. expected *checkin.Bus got %T", req)
	}
	return bus, nil
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}
