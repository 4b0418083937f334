// Package enrichment derives sentiment and symptoms from a check-in note using a text classifier.
package enrichment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
)

const (
	// SentimentInstruction asks for a single Positive/Negative label.
	SentimentInstruction = "You are a healthcare assistant. Classify the sentiment of the following patient check-in note as Positive or Negative. Respond with only one word: Positive or Negative."
	// SymptomsInstruction asks for a JSON array of symptom strings.
	SymptomsInstruction = `You are a healthcare assistant. Extract all symptoms mentioned in the following patient check-in note. Return a JSON array of strings only. If no symptoms are mentioned, return ["none"]. No commentary or explanation.`
)

// Error is an absorbed enrichment failure; it is logged and never surfaced to the caller of Enrich.
type Error struct {
	Step  string
	Cause error
}

func (e *Error) Error() string {
	return "enrichment " + e.Step + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClassifier sets the text classifier. Without one, Enrich returns the neutral result.
func WithClassifier(classifier checkin.TextClassifier) Option {
	return func(e *Enricher) {
		e.classifier = classifier
	}
}

// WithLogger sets the logger used to report absorbed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		e.logger = logger
	}
}

// Enricher runs the sentiment and symptom inferences.
type Enricher struct {
	logger     *slog.Logger
	classifier checkin.TextClassifier
}

// NewEnricher returns an Enricher with the given options applied.
func NewEnricher(opts ...Option) *Enricher {
	_inst := &Enricher{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("component", "enrichment")
	return _inst
}

// Enabled reports whether a classifier is configured.
func (e *Enricher) Enabled() bool {
	return e.classifier != nil
}

// Enrich classifies freeText. It never fails: absent text, a missing classifier or a
// classifier error yields no sentiment and the "none" symptom sentinel for the affected part.
func (e *Enricher) Enrich(ctx context.Context, freeText *string) checkin.EnrichmentResult {
	result := checkin.NewEnrichmentResult()
	text := helpers.NonBlank(freeText)
	if text == nil || e.classifier == nil {
		return result
	}

	sentiment, err := e.sentiment(ctx, *text)
	if err != nil {
		e.logger.Error("sentiment analysis failed", slog.Any("error", err))
	} else {
		result.Sentiment = sentiment
	}

	symptoms, err := e.symptoms(ctx, *text)
	if err != nil {
		e.logger.Error("symptom extraction failed", slog.Any("error", err))
	} else {
		result.Symptoms = symptoms
	}
	return result
}

func (e *Enricher) sentiment(ctx context.Context, text string) (*checkin.Sentiment, error) {
	out, err := e.classifier.Complete(ctx, SentimentInstruction, text)
	if err != nil {
		return nil, &Error{Step: "sentiment", Cause: err}
	}
	sentiment, ok := checkin.ParseSentiment(strings.TrimSpace(out))
	if !ok {
		e.logger.Info("discarding unrecognised sentiment label", slog.String("label", helpers.Truncate(out, 40)))
		return nil, nil
	}
	return &sentiment, nil
}

func (e *Enricher) symptoms(ctx context.Context, text string) ([]string, error) {
	out, err := e.classifier.Complete(ctx, SymptomsInstruction, text)
	if err != nil {
		return nil, &Error{Step: "symptoms", Cause: err}
	}
	symptoms, err := ParseSymptoms(out)
	if err != nil {
		e.logger.Warn("symptom response is not a JSON string array", slog.String("raw", helpers.Truncate(out, 120)))
		return checkin.NewEnrichmentResult().Symptoms, nil
	}
	return symptoms, nil
}

// ParseSymptoms decodes a JSON array of strings, tolerating a surrounding Markdown code fence.
// Blank entries are dropped; an empty result becomes the "none" sentinel.
func ParseSymptoms(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode symptoms")
	}
	symptoms := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) == 0 {
		return checkin.NewEnrichmentResult().Symptoms, nil
	}
	return symptoms, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. "json"
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
