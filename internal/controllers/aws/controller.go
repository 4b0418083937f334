// Package aws provides the Controller struct that wraps AWS services: SSM for secrets and S3 for the payload archive.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client used by the Controller.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SSMAPI is the subset of the SSM client used by the Controller.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Controller represents a wrapper for AWS services providing S3 and SSM functionality with context and logging support.
type Controller struct {
	ctx    context.Context
	logger *slog.Logger
	now    func() time.Time

	config    *aws.Config
	s3Client  S3API
	ssmClient SSMAPI
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
// It returns an instance of the Controller struct and an error if any required initialization steps fail.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "AWS")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.now == nil {
		_inst.now = time.Now
	}
	if _inst.s3Client != nil && _inst.ssmClient != nil {
		return _inst, nil
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(_inst.ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	if _inst.s3Client == nil {
		_inst.s3Client = s3.NewFromConfig(*_inst.config)
	}
	if _inst.ssmClient == nil {
		_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	}
	return _inst, nil
}

// GetSecret retrieves a secret value from SSM Parameter Store using the provided key.
// If encrypted is true, the secret is returned decrypted.
func (a *Controller) GetSecret(key string, encrypted bool) (*string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(a.ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load SSM parameters")
	}
	if ssmResponse.Parameter == nil || ssmResponse.Parameter.Value == nil {
		return nil, errors.Errorf("SSM parameter %s has no value", key)
	}
	return ssmResponse.Parameter.Value, nil
}

// ArchiveKey builds the object key `<prefix>/<RFC3339Nano>.<id>.json` for the given time.
func ArchiveKey(prefix, id string, at time.Time) string {
	name := fmt.Sprintf("%s.%s.json", at.UTC().Format(time.RFC3339Nano), id)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// PutS3Object uploads a JSON document to bucket under a timestamped key derived from prefix and id.
// An empty bucket disables the upload. The key written is returned.
func (a *Controller) PutS3Object(ctx context.Context, bucket, prefix, id string, body []byte) (string, error) {
	if bucket == "" {
		return "", nil
	}
	if ctx == nil {
		ctx = a.ctx
	}
	key := ArchiveKey(prefix, id, a.now())
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to put object to S3")
	}
	a.logger.Debug("archived object", slog.String("bucket", bucket), slog.String("key", key))
	return key, nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

// Logf bridges smithy log lines into slog; warnings stay warnings, everything else is debug.
func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	msg := fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...))
	if classification == logging.Warn {
		a.logger.Warn(msg)
		return
	}
	a.logger.Debug(msg)
}
