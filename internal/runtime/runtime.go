// Package runtime adapts the webhook handler to the HTTP service and Lambda entrypoints.
package runtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/config"
	"github.com/isometry/pro-checkin-webhook/internal/handler"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/models"
)

const (
	// MethodNotAllowedMessage is returned for any method other than POST.
	MethodNotAllowedMessage = "Method not allowed"
	// BodyTooLargeMessage is returned when the request body exceeds the configured limit.
	BodyTooLargeMessage = "Request body too large"
	// DefaultMaxBodyBytes bounds the request body read by ServeHTTP.
	DefaultMaxBodyBytes int64 = 1 << 20
)

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMaxBodyBytes limits the request body read by ServeHTTP. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}

type Runtime struct {
	*handler.Handler
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: handler, maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// HandleEvent is the Lambda handler for the runtime. The HTTP status travels in the
// returned response, so the error is only set for an unsupported payload type.
func (r *Runtime) HandleEvent(ctx context.Context, req helpers.Request) (any, error) {
	r.logger.Info("received API Gateway request")

	var response models.Response
	if method := req.Method(); method != "" && method != http.MethodPost {
		r.logger.Debug("rejecting Lambda request...", "reason", "method not allowed", slog.String("method", method))
		response = methodNotAllowed()
	} else {
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				r.logger.Warn("failed to decode base64 body", slog.Any("error", err))
				response = models.Response{StatusCode: http.StatusBadRequest, Status: models.StatusError, Message: "Invalid request body encoding"}
			}
			body = decoded
		}
		if response.StatusCode == 0 {
			bus, _ := r.Handler.Process(ctx, body, lowerKeys(req.Headers))
			response = responseOf(bus)
		}
	}

	statusCode, body := helpers.EncodeResponse(response)
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range response.Headers {
		headers[k] = v
	}

	payloadType := r.Handler.GetLambdaPayloadType()
	switch payloadType {
	case config.PayloadAPIGatewayV1:
		return events.APIGatewayProxyResponse{
			Body:       string(body),
			Headers:    headers,
			StatusCode: statusCode,
		}, nil
	case config.PayloadAPIGatewayV2, "":
		return events.APIGatewayV2HTTPResponse{
			Body:       string(body),
			Headers:    headers,
			StatusCode: statusCode,
		}, nil
	case config.PayloadLambdaURL:
		return events.LambdaFunctionURLResponse{
			Body:       string(body),
			Headers:    headers,
			StatusCode: statusCode,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", payloadType)
	}
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		resp.Header().Set("Allow", http.MethodPost)
		helpers.RespondHTTP(methodNotAllowed(), resp)
		return
	}

	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(resp, req.Body, r.maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		r.logger.Warn("rejecting oversized request body", slog.Int64("limit", tooLarge.Limit))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusRequestEntityTooLarge, Status: models.StatusError, Message: BodyTooLargeMessage}, resp)
		return
	}
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusBadRequest, Status: models.StatusError, Message: "Unable to read request body"}, resp)
		return
	}

	bus, _ := r.Handler.Process(req.Context(), body, headers)
	helpers.RespondHTTP(responseOf(bus), resp)
}

func responseOf(bus *checkin.Bus) models.Response {
	if bus == nil {
		return models.Response{StatusCode: http.StatusInternalServerError, Status: models.StatusError, Message: handler.InternalErrorMessage}
	}
	return bus.Response
}

func methodNotAllowed() models.Response {
	return models.Response{StatusCode: http.StatusMethodNotAllowed, Status: models.StatusError, Message: MethodNotAllowedMessage}
}

func lowerKeys(headers map[string]string) map[string]string {
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}
	return lch
}
