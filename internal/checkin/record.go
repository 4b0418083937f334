package checkin

import "slices"

// NoSymptoms is the sentinel symptom list meaning "none found or inference unavailable".
var NoSymptoms = []string{"none"}

// Vitals holds the coerced vital signs of a check-in. A nil field was absent from the payload.
type Vitals struct {
	HRV        *float64
	HeartRate  *float64
	SleepHours *float64
}

// CheckInRecord is the normalised content of a post-call webhook.
type CheckInRecord struct {
	PatientName string
	FreeText    *string
	Vitals      Vitals
}

// Sentiment is the classified tone of the free-text note.
type Sentiment string

const (
	// SentimentPositive marks a positive check-in.
	SentimentPositive Sentiment = "Positive"
	// SentimentNegative marks a negative check-in.
	SentimentNegative Sentiment = "Negative"
)

// ParseSentiment accepts exactly "Positive" or "Negative".
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative:
		return Sentiment(s), true
	default:
		return "", false
	}
}

// EnrichmentResult is the best-effort inference over the free-text note.
type EnrichmentResult struct {
	Sentiment *Sentiment
	Symptoms  []string
}

// NewEnrichmentResult returns the neutral result: no sentiment and no symptoms.
func NewEnrichmentResult() EnrichmentResult {
	return EnrichmentResult{Symptoms: slices.Clone(NoSymptoms)}
}

// IsNoSymptoms reports whether symptoms is empty or exactly the "none" sentinel.
func IsNoSymptoms(symptoms []string) bool {
	return len(symptoms) == 0 || slices.Equal(symptoms, NoSymptoms)
}

// EntityKind names an object written to the object store.
type EntityKind string

const (
	// KindPRO is a patient-reported outcome.
	KindPRO EntityKind = "PRO"
	// KindVitals is a dated vitals triple.
	KindVitals EntityKind = "Vitals"
)

// WriteOutcome reports what happened to one write.
type WriteOutcome struct {
	Kind             EntityKind
	Created          bool
	Skipped          bool
	ValidationResult string
	ValidationDetail map[string]any
}
