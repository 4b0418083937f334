package processor

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/validation"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// SignatureFailedMessage is the response message for every rejected signature.
const SignatureFailedMessage = "Signature verification failed"

type authValidatorProcessor struct {
	logger        *slog.Logger
	webhookSecret *validation.WebhookSecret
	required      bool
	now           func() time.Time
	skipWarning   *rate.Sometimes
}

// WithClock sets the clock used for the timestamp tolerance check.
func WithClock(now func() time.Time) Option {
	return func(p Processor) {
		if v, ok := p.(*authValidatorProcessor); ok {
			v.now = now
		}
	}
}

// WithSignatureRequired makes a missing secret a server error instead of skipping verification.
func WithSignatureRequired(required bool) Option {
	return func(p Processor) {
		if v, ok := p.(*authValidatorProcessor); ok {
			v.required = required
		}
	}
}

// NewAuthValidatorProcessor initializes a Processor that turns an *AuthRequest into a *checkin.Bus
// once the ElevenLabs signature is verified. A nil secret skips verification unless it is required.
func NewAuthValidatorProcessor(webhookSecret *validation.WebhookSecret, opts ...Option) Processor {
	_inst := &authValidatorProcessor{
		webhookSecret: webhookSecret,
		logger:        helpers.NewNoopLogger(),
		now:           time.Now,
		skipWarning:   helpers.OnceAMinute(),
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *authValidatorProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:validator")
}

func (p *authValidatorProcessor) Process(req any) (*checkin.Bus, error) {
	authRequest, ok := req.(*AuthRequest)
	if !ok {
		return nil, checkin.NewInternalErrorf("invalid request type. expected *AuthRequest got %T", req)
	}
	bus := &checkin.Bus{
		Context:    authRequest.Context,
		ID:         authRequest.ID,
		ReceivedAt: authRequest.ReceivedAt,
		Body:       authRequest.Body,
		Headers:    authRequest.Headers,
	}

	if p.webhookSecret == nil {
		if p.required {
			p.logger.Error("webhook secret is required but not configured")
			bus.Fail(http.StatusInternalServerError, "Webhook secret not configured on server")
			return bus, checkin.NewPipelineError(checkin.KindConfigError, http.StatusInternalServerError, validation.ErrConfig)
		}
		p.skipWarning.Do(func() {
			p.logger.Warn("webhook secret not configured, proceeding without signature verification")
		})
		return bus, nil
	}

	if err := p.webhookSecret.ValidateSignature(bus.Body, bus.Headers, p.now); err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, validation.ErrStaleTimestamp) || errors.Is(err, validation.ErrSignatureMismatch) {
			statusCode = http.StatusForbidden
		}
		p.logger.Warn("rejecting webhook", slog.Any("error", err), slog.Int("statusCode", statusCode))
		bus.Fail(statusCode, SignatureFailedMessage)
		return bus, checkin.NewPipelineError(checkin.KindAuthError, statusCode, err)
	}

	p.logger.Debug("webhook signature verified")
	bus.Verified = true
	return bus, nil
}
