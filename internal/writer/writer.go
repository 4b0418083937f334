// Package writer turns check-in data into object store actions: one PRO entity and one Vitals entity.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
)

// DateLayout is the ISO calendar date sent for submitted_at and date.
const DateLayout = time.DateOnly

// ErrNoObjectWriter is returned when the Writer has no object store.
var ErrNoObjectWriter = errors.New("object writer not configured")

// WriteError reports a failed write. Details carries the store's validation report when there is one.
type WriteError struct {
	Kind             checkin.EntityKind
	Reason           string
	ValidationResult string
	Details          map[string]any
	Cause            error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("%s write failed: %s", e.Kind, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Option configures a Writer.
type Option func(*Writer)

// WithObjectWriter sets the object store the actions are submitted to.
func WithObjectWriter(store checkin.ObjectWriter) Option {
	return func(w *Writer) {
		w.store = store
	}
}

// WithClock sets the clock used to date entities.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// Writer submits PRO and Vitals entities.
type Writer struct {
	logger *slog.Logger
	store  checkin.ObjectWriter
	now    func() time.Time
}

// NewWriter returns a Writer with the given options applied.
func NewWriter(opts ...Option) *Writer {
	_inst := &Writer{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("component", "writer")
	if _inst.now == nil {
		_inst.now = time.Now
	}
	return _inst
}

func (w *Writer) today() string {
	return w.now().UTC().Format(DateLayout)
}

// WritePro creates a patient-reported outcome. It is skipped when there is no text,
// no sentiment and no symptoms. An absent sentiment is omitted, never defaulted.
func (w *Writer) WritePro(ctx context.Context, patientID string, freeText *string, sentiment *checkin.Sentiment, symptoms []string) (checkin.WriteOutcome, error) {
	if len(symptoms) == 0 {
		symptoms = checkin.NoSymptoms
	}
	if helpers.NonBlank(freeText) == nil && sentiment == nil && checkin.IsNoSymptoms(symptoms) {
		w.logger.Info("no meaningful data for PRO entity, skipping", slog.String("patientID", patientID))
		return checkin.WriteOutcome{Kind: checkin.KindPRO, Skipped: true}, nil
	}

	fields := map[string]any{
		"patient":      patientID,
		"submitted_at": w.today(),
		"symptoms":     slices.Clone(symptoms),
	}
	if freeText != nil {
		fields["free_text"] = *freeText
	}
	if sentiment != nil {
		fields["sentiment"] = string(*sentiment)
	}
	return w.submit(ctx, checkin.KindPRO, patientID, fields)
}

// WriteVitals creates a dated vitals entity. Absent vitals are sent as 0; the write is
// skipped when no vital is positive.
func (w *Writer) WriteVitals(ctx context.Context, patientID string, vitals checkin.Vitals) (checkin.WriteOutcome, error) {
	hrv := helpers.ValueOr(vitals.HRV, 0)
	heartRate := helpers.ValueOr(vitals.HeartRate, 0)
	sleepHours := helpers.ValueOr(vitals.SleepHours, 0)
	logger := w.logger.With(slog.String("patientID", patientID),
		slog.Float64("hrv", hrv), slog.Float64("heartRate", heartRate), slog.Float64("sleepHours", sleepHours))

	if hrv <= 0 && heartRate <= 0 && sleepHours <= 0 {
		logger.Info("all vital signs are zero, skipping")
		return checkin.WriteOutcome{Kind: checkin.KindVitals, Skipped: true}, nil
	}

	fields := map[string]any{
		"patient":     patientID,
		"date":        w.today(),
		"hrv":         int64(hrv),
		"heart_rate":  int64(heartRate),
		"sleep_hours": sleepHours,
	}
	return w.submit(ctx, checkin.KindVitals, patientID, fields)
}

func (w *Writer) submit(ctx context.Context, kind checkin.EntityKind, patientID string, fields map[string]any) (checkin.WriteOutcome, error) {
	outcome := checkin.WriteOutcome{Kind: kind}
	logger := w.logger.With(slog.String("kind", string(kind)), slog.String("patientID", patientID))
	if w.store == nil {
		return outcome, &WriteError{Kind: kind, Reason: "no object store", Cause: ErrNoObjectWriter}
	}

	logger.Debug("submitting entity...")
	result, err := w.store.CreateEntity(ctx, kind, fields)
	if err != nil {
		logger.Error("entity submission failed", slog.Any("error", err))
		return outcome, &WriteError{Kind: kind, Reason: "submission failed", Cause: err}
	}
	if result == nil {
		logger.Error("entity submission returned no result")
		return outcome, &WriteError{Kind: kind, Reason: "unexpected response shape"}
	}

	outcome.ValidationResult = result.ValidationResult
	outcome.ValidationDetail = result.Details
	if result.ValidationResult != checkin.ValidationValid {
		logger.Error("entity failed validation", slog.String("result", result.ValidationResult), slog.Any("details", result.Details))
		return outcome, &WriteError{
			Kind:             kind,
			Reason:           "validation " + result.ValidationResult,
			ValidationResult: result.ValidationResult,
			Details:          result.Details,
		}
	}

	outcome.Created = true
	logger.Info("entity created")
	return outcome, nil
}
