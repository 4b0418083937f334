package validation_test

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "key"

var testNow = time.Unix(1_760_000_000, 0)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func signedHeader(secret string, ts int64, body string) string {
	return fmt.Sprintf("t=%d,v0=%s", ts, validation.Sign(secret, ts, []byte(body)))
}

func TestSign(t *testing.T) {
	sig := validation.Sign(testSecret, 1_760_000_000, []byte(`{"key": "value"}`))
	assert.Len(t, sig, 64)
	assert.Equal(t, strings.ToLower(sig), sig)
	assert.Equal(t, sig, validation.Sign(testSecret, 1_760_000_000, []byte(`{"key": "value"}`)))
	assert.NotEqual(t, sig, validation.Sign(testSecret, 1_760_000_001, []byte(`{"key": "value"}`)))
	assert.NotEqual(t, sig, validation.Sign("other", 1_760_000_000, []byte(`{"key": "value"}`)))
}

func TestParseSignatureHeader(t *testing.T) {
	testCases := []struct {
		Name        string
		Header      string
		Expected    *validation.SignatureToken
		ExpectError bool
	}{
		{
			Name:     "canonical",
			Header:   "t=1760000000,v0=abcdef",
			Expected: &validation.SignatureToken{Timestamp: 1_760_000_000, MACHex: "abcdef"},
		},
		{
			Name:     "whitespace_and_order",
			Header:   " v0 = abcdef , t = 1760000000 ",
			Expected: &validation.SignatureToken{Timestamp: 1_760_000_000, MACHex: "abcdef"},
		},
		{
			Name:     "extra_keys_and_junk_items",
			Header:   "t=1760000000,junk,v1=zzz,v0=abc=def",
			Expected: &validation.SignatureToken{Timestamp: 1_760_000_000, MACHex: "abc=def"},
		},
		{
			Name:        "missing_t",
			Header:      "v0=abcdef",
			ExpectError: true,
		},
		{
			Name:        "missing_v0",
			Header:      "t=1760000000",
			ExpectError: true,
		},
		{
			Name:        "empty_v0",
			Header:      "t=1760000000,v0=",
			ExpectError: true,
		},
		{
			Name:        "non_numeric_t",
			Header:      "t=yesterday,v0=abcdef",
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			token, err := validation.ParseSignatureHeader(tc.Header)
			if tc.ExpectError {
				assert.ErrorIs(t, err, validation.ErrMalformedHeader)
				assert.Nil(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, token)
		})
	}
}

func TestVerify(t *testing.T) {
	body := `{"type":"post_call_transcription","data":{}}`
	ts := testNow.Unix()

	testCases := []struct {
		Name     string
		Body     []byte
		Header   string
		Secret   string
		Expected error
	}{
		{
			Name:   "valid",
			Body:   []byte(body),
			Header: signedHeader(testSecret, ts, body),
			Secret: testSecret,
		},
		{
			Name:   "valid_at_past_tolerance_edge",
			Body:   []byte(body),
			Header: signedHeader(testSecret, ts-300, body),
			Secret: testSecret,
		},
		{
			Name:   "valid_at_future_tolerance_edge",
			Body:   []byte(body),
			Header: signedHeader(testSecret, ts+300, body),
			Secret: testSecret,
		},
		{
			Name:     "missing_secret",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, ts, body),
			Expected: validation.ErrConfig,
		},
		{
			Name:     "missing_header",
			Body:     []byte(body),
			Secret:   testSecret,
			Expected: validation.ErrMissingHeader,
		},
		{
			Name:     "malformed_header",
			Body:     []byte(body),
			Header:   "sha256=abcdef",
			Secret:   testSecret,
			Expected: validation.ErrMalformedHeader,
		},
		{
			Name:     "stale_timestamp",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, ts-600, body),
			Secret:   testSecret,
			Expected: validation.ErrStaleTimestamp,
		},
		{
			Name:     "future_timestamp",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, ts+301, body),
			Secret:   testSecret,
			Expected: validation.ErrStaleTimestamp,
		},
		{
			Name:     "min_int64_timestamp",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, math.MinInt64, body),
			Secret:   testSecret,
			Expected: validation.ErrStaleTimestamp,
		},
		{
			Name:     "timestamp_wrapping_drift",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, ts+math.MinInt64, body),
			Secret:   testSecret,
			Expected: validation.ErrStaleTimestamp,
		},
		{
			Name:     "max_int64_timestamp",
			Body:     []byte(body),
			Header:   signedHeader(testSecret, math.MaxInt64, body),
			Secret:   testSecret,
			Expected: validation.ErrStaleTimestamp,
		},
		{
			Name:     "wrong_secret",
			Body:     []byte(body),
			Header:   signedHeader("other", ts, body),
			Secret:   testSecret,
			Expected: validation.ErrSignatureMismatch,
		},
		{
			Name:     "tampered_body",
			Body:     []byte(body + " "),
			Header:   signedHeader(testSecret, ts, body),
			Secret:   testSecret,
			Expected: validation.ErrSignatureMismatch,
		},
		{
			Name:     "uppercase_signature",
			Body:     []byte(body),
			Header:   fmt.Sprintf("t=%d,v0=%s", ts, strings.ToUpper(validation.Sign(testSecret, ts, []byte(body)))),
			Secret:   testSecret,
			Expected: validation.ErrSignatureMismatch,
		},
		{
			Name:     "invalid_utf8",
			Body:     []byte{0xff, 0xfe, 0xfd},
			Header:   fmt.Sprintf("t=%d,v0=%s", ts, validation.Sign(testSecret, ts, []byte{0xff, 0xfe, 0xfd})),
			Secret:   testSecret,
			Expected: validation.ErrBadEncoding,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := validation.Verify(tc.Body, tc.Header, tc.Secret, fixedClock(testNow))
			if tc.Expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.Expected)
		})
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	secrets := []string{"key", "wsec_9f8e7d6c5b4a", "ünïcødé-secret"}
	bodies := []string{"", "{}", `{"data":{"analysis":{"data_collection_results":{"name":"Jane Doe"}}}}`, "héllo wörld"}
	offsets := []int64{-300, -299, -1, 0, 1, 150, 300}

	for _, secret := range secrets {
		for _, body := range bodies {
			for _, offset := range offsets {
				ts := testNow.Unix() + offset
				header := signedHeader(secret, ts, body)
				assert.NoError(t, validation.Verify([]byte(body), header, secret, fixedClock(testNow)),
					"secret=%q body=%q offset=%d", secret, body, offset)
			}
			for _, offset := range []int64{-301, 301, -86400} {
				ts := testNow.Unix() + offset
				header := signedHeader(secret, ts, body)
				assert.ErrorIs(t, validation.Verify([]byte(body), header, secret, fixedClock(testNow)),
					validation.ErrStaleTimestamp, "secret=%q body=%q offset=%d", secret, body, offset)
			}
		}
	}
}

func TestVerify_MalformedHeadersNeverMismatch(t *testing.T) {
	headers := []string{
		"v0=abcdef",
		"t=1760000000",
		"t=abc,v0=abcdef",
		"t=1.5,v0=abcdef",
		"garbage",
		",,,",
	}
	for _, header := range headers {
		t.Run(header, func(t *testing.T) {
			err := validation.Verify([]byte("{}"), header, testSecret, fixedClock(testNow))
			assert.ErrorIs(t, err, validation.ErrMalformedHeader)
			assert.NotErrorIs(t, err, validation.ErrSignatureMismatch)
		})
	}
}

func TestWebhookSecret_ValidateSignature(t *testing.T) {
	body := `{"key": "value"}`
	header := signedHeader(testSecret, testNow.Unix(), body)

	testCases := []struct {
		Name     string
		Secret   *validation.WebhookSecret
		Headers  map[string]string
		Expected error
	}{
		{
			Name:     "nil_secret",
			Headers:  map[string]string{"elevenlabs-signature": header},
			Expected: validation.ErrConfig,
		},
		{
			Name:     "missing_header",
			Secret:   validation.NewWebhookSecret(testSecret),
			Headers:  map[string]string{},
			Expected: validation.ErrMissingHeader,
		},
		{
			Name:    "valid_signature",
			Secret:  validation.NewWebhookSecret(testSecret),
			Headers: map[string]string{"elevenlabs-signature": header},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Secret.ValidateSignature([]byte(body), tc.Headers, fixedClock(testNow))
			if tc.Expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.Expected)
		})
	}
}

func TestNewWebhookSecret(t *testing.T) {
	assert.Nil(t, validation.NewWebhookSecret(""))
	require.NotNil(t, validation.NewWebhookSecret("key"))
	assert.Equal(t, validation.WebhookSecret("key"), *validation.NewWebhookSecret("key"))
}
