package cmd

import (
	"context"
	"log/slog"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/config"
	"github.com/isometry/pro-checkin-webhook/internal/controllers/aws"
	"github.com/isometry/pro-checkin-webhook/internal/controllers/foundry"
	"github.com/isometry/pro-checkin-webhook/internal/controllers/openai"
	"github.com/isometry/pro-checkin-webhook/internal/handler"
	"github.com/isometry/pro-checkin-webhook/internal/runtime"
	"github.com/pkg/errors"
)

// setup builds the handler and its collaborators from the loaded configuration.
// Collaborators that are not configured are left out and the handler degrades accordingly.
func setup(ctx context.Context) (*runtime.Runtime, error) {
	opts := []handler.Option{
		handler.WithContext(ctx),
		handler.WithLogger(logger.With("component", "checkin-handler")),
		handler.WithSignatureRequired(config.Webhook.RequireSignature),
		handler.WithLambdaPayloadType(config.Lambda.PayloadType),
	}

	var awsController *aws.Controller
	if config.Webhook.SecretSSMKey != "" || config.Foundry.TokenSSMKey != "" || config.ArchiveBucket() != "" {
		logger.Debug("creating AWS controller...")
		var err error
		awsController, err = aws.NewController(
			aws.WithContext(ctx),
			aws.WithLogger(logger))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AWS controller")
		}
	}

	secret, err := resolveSecret(awsController, config.Webhook.Secret, config.Webhook.SecretSSMKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve webhook secret")
	}
	opts = append(opts, handler.WithWebhookSecret(secret))

	token, err := resolveSecret(awsController, config.Foundry.Token, config.Foundry.TokenSSMKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve Foundry token")
	}
	logger.Debug("creating Foundry controller...")
	foundryController, err := foundry.NewController(
		foundry.WithLogger(logger),
		foundry.WithHostname(config.Foundry.Hostname),
		foundry.WithToken(token),
		foundry.WithOntology(config.Foundry.Ontology),
		foundry.WithPatientObjectType(config.Foundry.PatientObjectType),
		foundry.WithNameProperty(config.Foundry.NameProperty),
		foundry.WithIDProperty(config.Foundry.IDProperty),
		foundry.WithAction(checkin.KindPRO, config.Foundry.ProAction),
		foundry.WithAction(checkin.KindVitals, config.Foundry.VitalsAction),
		foundry.WithTimeout(config.Foundry.Timeout))
	switch {
	case errors.Is(err, foundry.ErrNotConfigured):
		logger.Warn("Foundry client not configured; check-ins will not be recorded")
	case err != nil:
		return nil, errors.Wrap(err, "failed to create Foundry controller")
	default:
		opts = append(opts,
			handler.WithPatientDirectory(foundryController),
			handler.WithObjectWriter(foundryController))
	}

	logger.Debug("creating OpenAI controller...")
	openaiController, err := openai.NewController(
		openai.WithLogger(logger),
		openai.WithAPIKey(config.Enrichment.APIKey),
		openai.WithBaseURL(config.Enrichment.BaseURL),
		openai.WithModel(config.Enrichment.Model),
		openai.WithTimeout(config.Enrichment.Timeout))
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
	case err != nil:
		return nil, errors.Wrap(err, "failed to create OpenAI controller")
	default:
		opts = append(opts, handler.WithClassifier(openaiController))
	}

	if bucket := config.ArchiveBucket(); bucket != "" {
		opts = append(opts, handler.WithArchive(awsController, bucket, config.Global.S3.Upload.Prefix))
	}

	logger.Debug("creating check-in handler...")
	hdl, err := handler.NewHandler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create check-in handler")
	}
	logCapabilities(hdl)

	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithMaxBodyBytes(config.Service.MaxBodyBytes)), nil
}

// resolveSecret prefers the direct value and falls back to an SSM parameter.
func resolveSecret(awsController *aws.Controller, value, ssmKey string) (string, error) {
	if value != "" || ssmKey == "" || awsController == nil {
		return value, nil
	}
	secret, err := awsController.GetSecret(ssmKey, true)
	if err != nil {
		return "", err
	}
	return *secret, nil
}

func logCapabilities(hdl *handler.Handler) {
	analysis := "disabled"
	if hdl.EnrichmentEnabled() {
		analysis = "enabled"
	}
	attrs := []any{
		slog.String("aiAnalysis", analysis),
		slog.String("archiveBucket", config.ArchiveBucket()),
	}
	switch {
	case hdl.VerificationEnabled():
		logger.Info("check-in handler ready", append(attrs, slog.String("signatureVerification", "enabled"))...)
	case config.Webhook.RequireSignature:
		logger.Error("check-in handler ready; webhook secret required but not configured, every delivery will fail", attrs...)
	default:
		logger.Warn("check-in handler ready; webhook signature verification SKIPPED", attrs...)
	}
}
