package writer_test

import (
	"context"
	"testing"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/writer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Kind   checkin.EntityKind
	Fields map[string]any
}

type fakeStore struct {
	result *checkin.ActionResult
	err    error
	calls  []call
}

func (f *fakeStore) CreateEntity(_ context.Context, kind checkin.EntityKind, fields map[string]any) (*checkin.ActionResult, error) {
	f.calls = append(f.calls, call{Kind: kind, Fields: fields})
	return f.result, f.err
}

func valid() *fakeStore {
	return &fakeStore{result: &checkin.ActionResult{ValidationResult: checkin.ValidationValid}}
}

func clock() time.Time {
	// 23:30 in UTC-5 is already the next day in UTC
	return time.Date(2025, time.March, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
}

func newWriter(store checkin.ObjectWriter) *writer.Writer {
	return writer.NewWriter(writer.WithObjectWriter(store), writer.WithClock(clock))
}

func TestWriteProSkips(t *testing.T) {
	testCases := []struct {
		Name     string
		Text     *string
		Symptoms []string
	}{
		{Name: "nothing", Text: nil, Symptoms: checkin.NoSymptoms},
		{Name: "empty_text", Text: helpers.Ptr(""), Symptoms: checkin.NoSymptoms},
		{Name: "nil_symptoms", Text: nil, Symptoms: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store := valid()
			outcome, err := newWriter(store).WritePro(context.Background(), "p-1", tc.Text, nil, tc.Symptoms)
			require.NoError(t, err)
			assert.True(t, outcome.Skipped)
			assert.False(t, outcome.Created)
			assert.Equal(t, checkin.KindPRO, outcome.Kind)
			assert.Empty(t, store.calls)
		})
	}
}

func TestWritePro(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		store := valid()
		sentiment := checkin.SentimentNegative
		outcome, err := newWriter(store).WritePro(context.Background(), "p-1", helpers.Ptr("headache"), &sentiment, []string{"headache"})
		require.NoError(t, err)
		assert.True(t, outcome.Created)
		assert.Equal(t, checkin.ValidationValid, outcome.ValidationResult)

		require.Len(t, store.calls, 1)
		assert.Equal(t, checkin.KindPRO, store.calls[0].Kind)
		assert.Equal(t, map[string]any{
			"patient":      "p-1",
			"submitted_at": "2025-03-10",
			"free_text":    "headache",
			"sentiment":    "Negative",
			"symptoms":     []string{"headache"},
		}, store.calls[0].Fields)
	})

	t.Run("absent_sentiment_is_omitted", func(t *testing.T) {
		store := valid()
		_, err := newWriter(store).WritePro(context.Background(), "p-1", helpers.Ptr("fine"), nil, checkin.NoSymptoms)
		require.NoError(t, err)
		require.Len(t, store.calls, 1)
		assert.NotContains(t, store.calls[0].Fields, "sentiment")
		assert.Equal(t, []string{"none"}, store.calls[0].Fields["symptoms"])
	})

	t.Run("symptoms_only", func(t *testing.T) {
		store := valid()
		outcome, err := newWriter(store).WritePro(context.Background(), "p-1", nil, nil, []string{"cough"})
		require.NoError(t, err)
		assert.True(t, outcome.Created)
		assert.NotContains(t, store.calls[0].Fields, "free_text")
	})
}

func TestWriteVitals(t *testing.T) {
	t.Run("all_zero_skips", func(t *testing.T) {
		store := valid()
		outcome, err := newWriter(store).WriteVitals(context.Background(), "p-1", checkin.Vitals{HRV: helpers.Ptr(0.0), HeartRate: helpers.Ptr(-3.0)})
		require.NoError(t, err)
		assert.True(t, outcome.Skipped)
		assert.Empty(t, store.calls)
	})

	t.Run("partial", func(t *testing.T) {
		store := valid()
		outcome, err := newWriter(store).WriteVitals(context.Background(), "p-1", checkin.Vitals{HRV: helpers.Ptr(50.0)})
		require.NoError(t, err)
		assert.True(t, outcome.Created)
		require.Len(t, store.calls, 1)
		assert.Equal(t, checkin.KindVitals, store.calls[0].Kind)
		assert.Equal(t, map[string]any{
			"patient":     "p-1",
			"date":        "2025-03-10",
			"hrv":         int64(50),
			"heart_rate":  int64(0),
			"sleep_hours": 0.0,
		}, store.calls[0].Fields)
	})

	t.Run("sleep_only", func(t *testing.T) {
		store := valid()
		outcome, err := newWriter(store).WriteVitals(context.Background(), "p-1", checkin.Vitals{SleepHours: helpers.Ptr(6.5)})
		require.NoError(t, err)
		assert.True(t, outcome.Created)
		assert.Equal(t, 6.5, store.calls[0].Fields["sleep_hours"])
	})
}

func TestWriteFailures(t *testing.T) {
	testCases := []struct {
		Name           string
		Store          checkin.ObjectWriter
		ExpectedResult string
	}{
		{Name: "invalid", Store: &fakeStore{result: &checkin.ActionResult{ValidationResult: "INVALID", Details: map[string]any{"hrv": "out of range"}}}, ExpectedResult: "INVALID"},
		{Name: "transport", Store: &fakeStore{err: errors.New("connection reset")}},
		{Name: "nil_result", Store: &fakeStore{}},
		{Name: "no_store", Store: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			w := writer.NewWriter(writer.WithClock(clock))
			if tc.Store != nil {
				w = newWriter(tc.Store)
			}
			outcome, err := w.WriteVitals(context.Background(), "p-1", checkin.Vitals{HRV: helpers.Ptr(50.0)})
			var wErr *writer.WriteError
			require.True(t, errors.As(err, &wErr))
			assert.Equal(t, checkin.KindVitals, wErr.Kind)
			assert.Equal(t, tc.ExpectedResult, wErr.ValidationResult)
			assert.False(t, outcome.Created)
			assert.False(t, outcome.Skipped)
			assert.Equal(t, tc.ExpectedResult, outcome.ValidationResult)
		})
	}

	t.Run("validation_details_are_reported", func(t *testing.T) {
		store := &fakeStore{result: &checkin.ActionResult{ValidationResult: "INVALID", Details: map[string]any{"hrv": "out of range"}}}
		_, err := newWriter(store).WritePro(context.Background(), "p-1", helpers.Ptr("x"), nil, nil)
		var wErr *writer.WriteError
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, checkin.KindPRO, wErr.Kind)
		assert.Equal(t, "out of range", wErr.Details["hrv"])
		assert.Equal(t, "PRO write failed: validation INVALID", wErr.Error())
	})
}
