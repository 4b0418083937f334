package cmd

import (
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/config"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Webhook.Secret: {
		Name:        "webhook-secret",
		Description: "The shared secret used to verify ElevenLabs webhook signatures. If not specified, verification is skipped unless required",
		Env:         helpers.Ptr("ELEVENLABS_WEBHOOK_SECRET"),
	},
	&config.Webhook.SecretSSMKey: {
		Name:        "webhook-secret-ssm-key",
		Description: "The SSM parameter key holding the webhook secret, used when no secret is given directly",
	},
	&config.Foundry.Hostname: {
		Name:        "foundry-hostname",
		Description: "The Foundry stack hostname, with or without scheme",
		Env:         helpers.Ptr("FOUNDRY_HOSTNAME"),
	},
	&config.Foundry.Token: {
		Name:        "foundry-token",
		Description: "The bearer token used against the Foundry ontology API",
		Env:         helpers.Ptr("FOUNDRY_TOKEN"),
	},
	&config.Foundry.TokenSSMKey: {
		Name:        "foundry-token-ssm-key",
		Description: "The SSM parameter key holding the Foundry token, used when no token is given directly",
	},
	&config.Foundry.Ontology: {
		Name:        "foundry-ontology",
		Description: "The Foundry ontology API name or RID",
	},
	&config.Foundry.PatientObjectType: {
		Name:        "foundry-patient-object-type",
		Description: "The ontology object type searched for patients",
	},
	&config.Foundry.NameProperty: {
		Name:        "foundry-name-property",
		Description: "The patient property matched against the spoken name",
	},
	&config.Foundry.IDProperty: {
		Name:        "foundry-id-property",
		Description: "The patient property used as the patient identifier",
	},
	&config.Foundry.ProAction: {
		Name:        "foundry-pro-action",
		Description: "The ontology action creating PRO entities",
	},
	&config.Foundry.VitalsAction: {
		Name:        "foundry-vitals-action",
		Description: "The ontology action creating vitals entities",
	},
	&config.Enrichment.APIKey: {
		Name:        "openai-api-key",
		Description: "The OpenAI API key. If not specified, free-text analysis is disabled",
		Env:         helpers.Ptr("OPENAI_API_KEY"),
	},
	&config.Enrichment.BaseURL: {
		Name:        "openai-base-url",
		Description: "Override the OpenAI API base URL",
	},
	&config.Enrichment.Model: {
		Name:        "openai-model",
		Description: "The chat model used for free-text analysis",
	},
	&config.Global.S3.Upload.BucketName: {
		Name:        "archive-s3-bucket",
		Description: "The S3 bucket receiving verified webhook payloads",
	},
	&config.Global.S3.Upload.Prefix: {
		Name:        "archive-s3-prefix",
		Description: "The key prefix for archived webhook payloads",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Webhook.RequireSignature: {
		Name:        "webhook-require-signature",
		Description: "Reject every delivery with a server error when no webhook secret is configured",
	},
	&config.Global.S3.Upload.Enabled: {
		Name:        "archive-s3-upload",
		Description: "Enable S3 archival of verified webhook payloads",
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Foundry.Timeout: {
		Name:        "foundry-timeout",
		Description: "The timeout for Foundry API calls",
	},
	&config.Enrichment.Timeout: {
		Name:        "openai-timeout",
		Description: "The timeout for OpenAI API calls",
	},
}
