package enrichment_test

import (
	"context"
	"testing"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/enrichment"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	replies map[string]string
	errs    map[string]error
	calls   int
}

func (f *fakeClassifier) Complete(_ context.Context, instruction, _ string) (string, error) {
	f.calls++
	if err := f.errs[instruction]; err != nil {
		return "", err
	}
	return f.replies[instruction], nil
}

func classifier(sentiment, symptoms string) *fakeClassifier {
	return &fakeClassifier{replies: map[string]string{
		enrichment.SentimentInstruction: sentiment,
		enrichment.SymptomsInstruction:  symptoms,
	}}
}

func TestEnrichWithoutInput(t *testing.T) {
	testCases := []struct {
		Name       string
		Text       *string
		Classifier *fakeClassifier
	}{
		{Name: "nil_text", Text: nil, Classifier: classifier("Positive", `["cough"]`)},
		{Name: "empty_text", Text: helpers.Ptr(""), Classifier: classifier("Positive", `["cough"]`)},
		{Name: "blank_text", Text: helpers.Ptr("  \n"), Classifier: classifier("Positive", `["cough"]`)},
		{Name: "no_classifier", Text: helpers.Ptr("I have a cough")},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			opts := []enrichment.Option{}
			if tc.Classifier != nil {
				opts = append(opts, enrichment.WithClassifier(tc.Classifier))
			}
			result := enrichment.NewEnricher(opts...).Enrich(context.Background(), tc.Text)
			assert.Nil(t, result.Sentiment)
			assert.Equal(t, checkin.NoSymptoms, result.Symptoms)
			if tc.Classifier != nil {
				assert.Zero(t, tc.Classifier.calls)
			}
		})
	}
}

func TestEnrich(t *testing.T) {
	testCases := []struct {
		Name              string
		SentimentReply    string
		SymptomsReply     string
		ExpectedSentiment *checkin.Sentiment
		ExpectedSymptoms  []string
	}{
		{
			Name:              "positive_with_symptoms",
			SentimentReply:    "Positive",
			SymptomsReply:     `["headache", "fatigue"]`,
			ExpectedSentiment: helpers.Ptr(checkin.SentimentPositive),
			ExpectedSymptoms:  []string{"headache", "fatigue"},
		},
		{
			Name:              "negative_fenced_symptoms",
			SentimentReply:    " Negative\n",
			SymptomsReply:     "```json\n[\"nausea\"]\n```",
			ExpectedSentiment: helpers.Ptr(checkin.SentimentNegative),
			ExpectedSymptoms:  []string{"nausea"},
		},
		{
			Name:             "unknown_label_is_discarded",
			SentimentReply:   "Neutral",
			SymptomsReply:    `["none"]`,
			ExpectedSymptoms: checkin.NoSymptoms,
		},
		{
			Name:             "invalid_symptoms_json",
			SentimentReply:   "Mixed feelings",
			SymptomsReply:    "The patient reports a headache.",
			ExpectedSymptoms: checkin.NoSymptoms,
		},
		{
			Name:              "empty_symptom_list",
			SentimentReply:    "Positive",
			SymptomsReply:     `[]`,
			ExpectedSentiment: helpers.Ptr(checkin.SentimentPositive),
			ExpectedSymptoms:  checkin.NoSymptoms,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			c := classifier(tc.SentimentReply, tc.SymptomsReply)
			result := enrichment.NewEnricher(enrichment.WithClassifier(c)).Enrich(context.Background(), helpers.Ptr("note"))
			assert.Equal(t, tc.ExpectedSentiment, result.Sentiment)
			assert.Equal(t, tc.ExpectedSymptoms, result.Symptoms)
			assert.Equal(t, 2, c.calls)
		})
	}
}

func TestEnrichAbsorbsErrors(t *testing.T) {
	t.Run("sentiment_fails_symptoms_survive", func(t *testing.T) {
		c := classifier("", `["cough"]`)
		c.errs = map[string]error{enrichment.SentimentInstruction: errors.New("timeout")}
		result := enrichment.NewEnricher(enrichment.WithClassifier(c)).Enrich(context.Background(), helpers.Ptr("note"))
		assert.Nil(t, result.Sentiment)
		assert.Equal(t, []string{"cough"}, result.Symptoms)
	})

	t.Run("symptoms_fail_sentiment_survives", func(t *testing.T) {
		c := classifier("Negative", "")
		c.errs = map[string]error{enrichment.SymptomsInstruction: errors.New("rate limited")}
		result := enrichment.NewEnricher(enrichment.WithClassifier(c)).Enrich(context.Background(), helpers.Ptr("note"))
		require.NotNil(t, result.Sentiment)
		assert.Equal(t, checkin.SentimentNegative, *result.Sentiment)
		assert.Equal(t, checkin.NoSymptoms, result.Symptoms)
	})
}

func TestParseSymptoms(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    string
		Expected []string
		Error    bool
	}{
		{Name: "plain", Input: `["a","b"]`, Expected: []string{"a", "b"}},
		{Name: "fenced", Input: "```\n[\"a\"]\n```", Expected: []string{"a"}},
		{Name: "fenced_json", Input: "```json\n[\"a\"]```", Expected: []string{"a"}},
		{Name: "blank_entries_dropped", Input: `["", " a "]`, Expected: []string{"a"}},
		{Name: "only_blank_entries", Input: `[" "]`, Expected: checkin.NoSymptoms},
		{Name: "empty", Input: `[]`, Expected: checkin.NoSymptoms},
		{Name: "object", Input: `{"symptoms":["a"]}`, Error: true},
		{Name: "mixed_types", Input: `["a", 1]`, Error: true},
		{Name: "prose", Input: `none`, Error: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			symptoms, err := enrichment.ParseSymptoms(tc.Input)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, symptoms)
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &enrichment.Error{Step: "sentiment", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "enrichment sentiment: boom", err.Error())
}
