// Package payload normalises post-call webhook bodies into check-in records.
package payload

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
)

// Data collection keys read from data.analysis.data_collection_results.
const (
	KeyName       = "name"
	KeyFreeText   = "free_text"
	KeyHRV        = "hrv"
	KeyHeartRate  = "heart_rate"
	KeySleepHours = "sleep_hours"
)

var (
	// ErrInvalidJSON is returned when the body is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNothingToDo marks a well-formed delivery that carries no check-in data.
	ErrNothingToDo = errors.New("nothing to do")
	// ErrMissingData is returned when the top-level data object is missing.
	ErrMissingData = errors.Wrap(ErrNothingToDo, "missing data object")
	// ErrMissingResults is returned when data_collection_results is missing or empty.
	ErrMissingResults = errors.Wrap(ErrNothingToDo, "missing data_collection_results")
	// ErrMissingPatientName is returned when no usable patient name was collected.
	ErrMissingPatientName = errors.New("patient name could not be extracted")
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used to report tolerated anomalies.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// Normalizer extracts a CheckInRecord from a raw webhook body.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer returns a Normalizer with the given options applied.
func NewNormalizer(opts ...Option) *Normalizer {
	_inst := &Normalizer{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// Normalize parses body and returns the check-in it describes.
// ErrNothingToDo (wrapped) is returned for deliveries without data collection results.
func (n *Normalizer) Normalize(body []byte) (*checkin.CheckInRecord, error) {
	results, err := n.dataCollectionResults(body)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]Field, len(results))
	for key, raw := range results {
		field := DecodeField(raw)
		if field.Shape == ShapeUnsupported {
			n.logger.Warn("ignoring data collection result with unsupported shape", slog.String("key", key))
		}
		fields[key] = field
	}

	name, ok := fields[KeyName].String()
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		n.logger.Warn("patient name could not be extracted", slog.String("shape", fields[KeyName].Shape.String()))
		return nil, ErrMissingPatientName
	}

	record := &checkin.CheckInRecord{PatientName: name}
	if text, ok := fields[KeyFreeText].String(); ok {
		record.FreeText = &text
	} else if fields[KeyFreeText].Present() {
		n.logger.Warn("ignoring non-string free_text", slog.Any("value", fields[KeyFreeText].Value))
	}

	record.Vitals.HRV = n.coerce(KeyHRV, fields[KeyHRV], Field.Integer)
	record.Vitals.HeartRate = n.coerce(KeyHeartRate, fields[KeyHeartRate], Field.Integer)
	record.Vitals.SleepHours = n.coerce(KeySleepHours, fields[KeySleepHours], Field.Float)

	n.logger.Debug("normalised check-in",
		slog.String("patient", record.PatientName),
		slog.Bool("freeText", record.FreeText != nil),
		slog.Any("hrv", record.Vitals.HRV),
		slog.Any("heartRate", record.Vitals.HeartRate),
		slog.Any("sleepHours", record.Vitals.SleepHours))
	return record, nil
}

// coerce returns nil for absent fields and 0 for present fields that fail numeric parsing.
func (n *Normalizer) coerce(key string, field Field, convert func(Field) (float64, bool)) *float64 {
	if !field.Present() {
		return nil
	}
	v, ok := convert(field)
	if !ok {
		n.logger.Warn("could not convert vital sign, defaulting to 0", slog.String("key", key), slog.Any("value", field.Value))
		v = 0
	}
	return &v
}

func (n *Normalizer) dataCollectionResults(body []byte) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return nil, errors.Wrap(ErrInvalidJSON, errString(err, "top-level value is not an object"))
	}
	n.logger.Debug("received payload", slog.Any("keys", sortedKeys(top)))

	var data map[string]json.RawMessage
	if err := json.Unmarshal(top["data"], &data); err != nil || len(data) == 0 {
		return nil, ErrMissingData
	}

	var analysis map[string]json.RawMessage
	if err := json.Unmarshal(data["analysis"], &analysis); err != nil || analysis == nil {
		return nil, ErrMissingResults
	}

	var results map[string]json.RawMessage
	if err := json.Unmarshal(analysis["data_collection_results"], &results); err != nil || len(results) == 0 {
		return nil, ErrMissingResults
	}
	return results, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func errString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
