package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
)

// Archiver stores a raw delivery body.
type Archiver interface {
	PutS3Object(ctx context.Context, bucket, prefix, id string, body []byte) (string, error)
}

type s3ArchiverPostProcessor struct {
	logger   *slog.Logger
	archiver Archiver
	bucket   string
	prefix   string
}

// NewS3ArchiverPostProcessor creates a post-processor that archives verified deliveries.
// Archive failures are logged and never alter the response.
func NewS3ArchiverPostProcessor(archiver Archiver, bucket, prefix string, opts ...Option) Processor {
	_inst := &s3ArchiverPostProcessor{archiver: archiver, bucket: bucket, prefix: prefix, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3ArchiverPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:s3")
}

func (p *s3ArchiverPostProcessor) Process(req any) (*checkin.Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	if p.archiver == nil || p.bucket == "" {
		p.logger.Debug("s3 archive is disabled")
		return bus, nil
	}
	if !bus.Verified {
		p.logger.Debug("not archiving unverified delivery")
		return bus, nil
	}

	key, err := p.archiver.PutS3Object(bus.Ctx(), p.bucket, p.prefix, bus.ID, bus.Body)
	if err != nil {
		p.logger.Warn("failed to archive delivery in S3", slog.Any("error", err))
		return bus, nil
	}
	p.logger.Debug("archived delivery", slog.String("key", key))
	return bus, nil
}
