// Package foundry provides a Controller for the Foundry ontology REST API: patient lookup and action submission.
package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Defaults for the hospital check-in ontology.
const (
	DefaultPatientObjectType = "Patient"
	DefaultNameProperty      = "name"
	DefaultIDProperty        = "id"
	DefaultProAction         = "create-proentity"
	DefaultVitalsAction      = "create-vitals"
	DefaultTimeout           = 30 * time.Second
)

const (
	primaryKeyProperty = "__primaryKey"
	maxResponseBytes   = 1 << 20
)

// ErrNotConfigured is returned by NewController when the hostname or token is missing.
var ErrNotConfigured = errors.New("foundry hostname and token are required")

// APIError is a non-2xx response from the Foundry API.
type APIError struct {
	StatusCode      int            `json:"-"`
	ErrorCode       string         `json:"errorCode"`
	ErrorName       string         `json:"errorName"`
	ErrorInstanceID string         `json:"errorInstanceId"`
	Parameters      map[string]any `json:"parameters"`
}

func (e *APIError) Error() string {
	if e.ErrorName == "" {
		return fmt.Sprintf("foundry API returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("foundry API returned HTTP %d: %s (%s)", e.StatusCode, e.ErrorName, e.ErrorCode)
}

// Controller implements checkin.PatientDirectory and checkin.ObjectWriter over HTTP.
type Controller struct {
	logger *slog.Logger

	baseURL     string
	token       string
	tokenSource oauth2.TokenSource
	timeout     time.Duration

	ontology          string
	patientObjectType string
	nameProperty      string
	idProperty        string
	actions           map[checkin.EntityKind]string

	client *http.Client
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. The hostname may be given with or without a scheme.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{
		actions: map[checkin.EntityKind]string{},
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "Foundry")
	if _inst.baseURL == "" || (_inst.token == "" && _inst.tokenSource == nil) {
		return nil, ErrNotConfigured
	}
	if _inst.ontology == "" {
		return nil, errors.New("foundry ontology is required")
	}
	if _inst.patientObjectType == "" {
		_inst.patientObjectType = DefaultPatientObjectType
	}
	if _inst.nameProperty == "" {
		_inst.nameProperty = DefaultNameProperty
	}
	if _inst.idProperty == "" {
		_inst.idProperty = DefaultIDProperty
	}
	if _inst.actions[checkin.KindPRO] == "" {
		_inst.actions[checkin.KindPRO] = DefaultProAction
	}
	if _inst.actions[checkin.KindVitals] == "" {
		_inst.actions[checkin.KindVitals] = DefaultVitalsAction
	}
	if _inst.timeout <= 0 {
		_inst.timeout = DefaultTimeout
	}
	if _inst.tokenSource == nil {
		_inst.tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: _inst.token, TokenType: "Bearer"})
	}

	_inst.client = oauth2.NewClient(context.Background(), _inst.tokenSource)
	_inst.client.Timeout = _inst.timeout
	return _inst, nil
}

// BaseURL returns the normalised API root, e.g. "https://example.palantirfoundry.com".
func (c *Controller) BaseURL() string {
	return c.baseURL
}

type searchRequest struct {
	Where    searchFilter `json:"where"`
	PageSize int          `json:"pageSize"`
}

type searchFilter struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type searchResponse struct {
	Data []map[string]any `json:"data"`
}

// FindPatientByName runs an exact-match search on the patient name property.
// Zero or several matches report found == false.
func (c *Controller) FindPatientByName(ctx context.Context, name string) (string, bool, error) {
	logger := c.logger.With(slog.String("patient", name))
	path := fmt.Sprintf("/api/v2/ontologies/%s/objects/%s/search",
		url.PathEscape(c.ontology), url.PathEscape(c.patientObjectType))

	var resp searchResponse
	err := c.do(ctx, path, searchRequest{
		Where:    searchFilter{Type: "eq", Field: c.nameProperty, Value: name},
		PageSize: 2,
	}, &resp)
	if err != nil {
		return "", false, errors.Wrap(err, "failed to search patients")
	}

	switch len(resp.Data) {
	case 0:
		logger.Info("no patient matches name")
		return "", false, nil
	case 1:
	default:
		logger.Warn("patient name is ambiguous", slog.Int("matches", len(resp.Data)))
		return "", false, nil
	}

	id := propertyString(resp.Data[0], c.idProperty)
	if id == "" {
		id = propertyString(resp.Data[0], primaryKeyProperty)
	}
	if id == "" {
		return "", false, errors.Errorf("patient object has neither %q nor %s", c.idProperty, primaryKeyProperty)
	}
	logger.Debug("resolved patient", slog.String("id", id))
	return id, true, nil
}

type applyRequest struct {
	Parameters map[string]any `json:"parameters"`
	Options    applyOptions   `json:"options"`
}

type applyOptions struct {
	Mode        string `json:"mode"`
	ReturnEdits string `json:"returnEdits"`
}

type applyResponse struct {
	Validation map[string]any `json:"validation"`
	Edits      map[string]any `json:"edits"`
}

// CreateEntity applies the action mapped to kind in VALIDATE_AND_EXECUTE mode, returning all edits.
// A validation failure reported as an API error is returned as an ActionResult, not an error.
func (c *Controller) CreateEntity(ctx context.Context, kind checkin.EntityKind, fields map[string]any) (*checkin.ActionResult, error) {
	action, ok := c.actions[kind]
	if !ok {
		return nil, errors.Errorf("no action configured for %s", kind)
	}
	path := fmt.Sprintf("/api/v2/ontologies/%s/actions/%s/apply", url.PathEscape(c.ontology), url.PathEscape(action))
	c.logger.Debug("applying action...", slog.String("action", action), slog.String("kind", string(kind)))

	var resp applyResponse
	err := c.do(ctx, path, applyRequest{
		Parameters: fields,
		Options:    applyOptions{Mode: "VALIDATE_AND_EXECUTE", ReturnEdits: "ALL"},
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.ErrorName == "ActionValidationFailed" {
			return &checkin.ActionResult{ValidationResult: "INVALID", Details: apiErr.Parameters}, nil
		}
		return nil, errors.Wrapf(err, "failed to apply action %s", action)
	}

	result, _ := resp.Validation["result"].(string)
	if result == "" {
		return nil, errors.Errorf("action %s returned no validation result", action)
	}
	return &checkin.ActionResult{ValidationResult: result, Details: resp.Validation, Edits: resp.Edits}, nil
}

func (c *Controller) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		_ = json.Unmarshal(raw, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "unexpected response shape")
	}
	return nil
}

func propertyString(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func normaliseHostname(hostname string) string {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return ""
	}
	if !strings.Contains(hostname, "://") {
		hostname = "https://" + hostname
	}
	return strings.TrimRight(hostname, "/")
}
