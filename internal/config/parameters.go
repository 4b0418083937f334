// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/creasty/defaults"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.yaml.in/yaml/v3"
)

// Runtime modes.
const (
	ModeService = "service"
	ModeLambda  = "lambda"
)

// Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Webhook is a struct that contains the configuration for inbound webhook verification.
	Webhook webhook
	// Foundry is a struct that contains the configuration for the Foundry ontology client.
	Foundry foundry
	// Enrichment is a struct that contains the configuration for the OpenAI classifier.
	Enrichment enrichment
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// S3 is a struct that contains the configuration for S3.
	S3 struct {
		Upload struct {
			BucketName string `yaml:"bucketName,omitempty"`
			Prefix     string `yaml:"prefix,omitempty" default:"elevenlabs/postcall"`
			Enabled    bool   `yaml:"enabled,omitempty"`
		} `yaml:"upload,omitempty"`
	} `yaml:"s3,omitempty"`
}

type webhook struct {
	// Secret is the shared HMAC secret. Empty disables verification unless RequireSignature is set.
	Secret string `yaml:"secret,omitempty"`
	// SecretSSMKey names an SSM parameter holding the secret.
	SecretSSMKey string `yaml:"secretSSMKey,omitempty"`
	// RequireSignature turns a missing secret into a server error.
	RequireSignature bool `yaml:"requireSignature,omitempty"`
}

type foundry struct {
	Hostname          string        `yaml:"hostname,omitempty"`
	Token             string        `yaml:"token,omitempty"`
	TokenSSMKey       string        `yaml:"tokenSSMKey,omitempty"`
	Ontology          string        `yaml:"ontology,omitempty"`
	PatientObjectType string        `yaml:"patientObjectType,omitempty" default:"Patient"`
	NameProperty      string        `yaml:"nameProperty,omitempty" default:"name"`
	IDProperty        string        `yaml:"idProperty,omitempty" default:"id"`
	ProAction         string        `yaml:"proAction,omitempty" default:"create-proentity"`
	VitalsAction      string        `yaml:"vitalsAction,omitempty" default:"create-vitals"`
	Timeout           time.Duration `yaml:"timeout,omitempty" default:"30s"`
}

type enrichment struct {
	APIKey  string        `yaml:"apiKey,omitempty"`
	BaseURL string        `yaml:"baseURL,omitempty"`
	Model   string        `yaml:"model,omitempty" default:"gpt-3.5-turbo"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"30s"`
}

type service struct {
	Path            string        `yaml:"path,omitempty" default:"/webhook/elevenlabs/postcall"`
	Addr            string        `yaml:"addr,omitempty"`
	Port            string        `yaml:"port,omitempty" default:"5000"`
	Timeout         time.Duration `yaml:"timeout,omitempty" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty" default:"10s"`
	// MaxBodyBytes bounds the webhook request body.
	MaxBodyBytes int64 `yaml:"maxBodyBytes,omitempty" default:"1048576"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

var (
	portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)
	pathPattern = regexp.MustCompile(`^/`)
)

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Webhook),
		defaults.Set(&Foundry),
		defaults.Set(&Enrichment),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// LoadFromFile loads the configuration from a file. A missing file is not an error.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global     global     `yaml:"global,omitempty"`
		Webhook    webhook    `yaml:"webhook,omitempty"`
		Foundry    foundry    `yaml:"foundry,omitempty"`
		Enrichment enrichment `yaml:"enrichment,omitempty"`
		Service    service    `yaml:"service,omitempty"`
		Lambda     lambda     `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Webhook = a.Webhook
	Foundry = a.Foundry
	Enrichment = a.Enrichment
	Service = a.Service
	Lambda = a.Lambda

	return nil
}

// Validate checks the loaded configuration.
func Validate() error {
	return errors.Join(
		Global.Validate(),
		Foundry.Validate(),
		Enrichment.Validate(),
		Service.Validate(),
		Lambda.Validate(),
	)
}

// Validate validates the global configuration.
func (c *global) Validate() error {
	return validation.Errors{
		"mode":                 validation.Validate(c.Mode, validation.Required, validation.In(ModeService, ModeLambda)),
		"logging.verbosity":    validation.Validate(c.Logging.Verbosity, validation.Min(0)),
		"s3.upload.bucketName": validation.Validate(c.S3.Upload.BucketName, validation.When(c.S3.Upload.Enabled, validation.Required)),
	}.Filter()
}

// Validate validates the Foundry configuration. The ontology is only required once a hostname is set.
func (c *foundry) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Ontology, validation.When(c.Hostname != "", validation.Required)),
		validation.Field(&c.PatientObjectType, validation.Required),
		validation.Field(&c.NameProperty, validation.Required),
		validation.Field(&c.IDProperty, validation.Required),
		validation.Field(&c.ProAction, validation.Required),
		validation.Field(&c.VitalsAction, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// Validate validates the enrichment configuration.
func (c *enrichment) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// Validate validates the service configuration.
func (c *service) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required, validation.Match(pathPattern)),
		validation.Field(&c.Port, validation.Required, validation.Match(portPattern)),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// Validate validates the lambda configuration.
func (c *lambda) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PayloadType, validation.Required, validation.In(PayloadAPIGatewayV1, PayloadAPIGatewayV2, PayloadLambdaURL)),
	)
}

// ArchiveBucket returns the S3 bucket deliveries are archived to, or "" when archiving is disabled.
func ArchiveBucket() string {
	if !Global.S3.Upload.Enabled {
		return ""
	}
	return Global.S3.Upload.BucketName
}
