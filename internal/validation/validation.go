// Package validation provides functionality for validating webhook signatures to verify request authenticity.
package validation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// SignatureHeader is the header carrying the ElevenLabs webhook signature.
const SignatureHeader = "ElevenLabs-Signature"

// Tolerance bounds the accepted distance between the signature timestamp and the wall clock.
const Tolerance = 300 * time.Second

var (
	// ErrConfig is returned when no shared secret is available to verify against.
	ErrConfig = errors.New("webhook secret not configured")
	// ErrMissingHeader is returned when the signature header is absent.
	ErrMissingHeader = errors.New("missing signature header")
	// ErrMalformedHeader is returned when the signature header lacks t or v0, or t is not an integer.
	ErrMalformedHeader = errors.New("malformed signature header")
	// ErrStaleTimestamp is returned when the signature timestamp is outside the tolerance window.
	ErrStaleTimestamp = errors.New("signature timestamp outside tolerance window")
	// ErrBadEncoding is returned when the body is not valid UTF-8.
	ErrBadEncoding = errors.New("invalid request body encoding")
	// ErrSignatureMismatch is returned when the computed signature differs from v0.
	ErrSignatureMismatch = errors.New("invalid signature")
)

// SignatureToken is the parsed form of the signature header.
type SignatureToken struct {
	Timestamp int64
	MACHex    string
}

// ParseSignatureHeader splits the header on "," then on the first "=", keeping the t and v0 keys.
// Unknown keys and items without "=" are ignored.
func ParseSignatureHeader(header string) (*SignatureToken, error) {
	var (
		token       SignatureToken
		hasT, hasV0 bool
	)
	for _, item := range strings.Split(header, ",") {
		key, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedHeader, "timestamp %q is not an integer", value)
			}
			token.Timestamp = ts
			hasT = true
		case "v0":
			token.MACHex = value
			hasV0 = value != ""
		}
	}
	if !hasT || !hasV0 {
		return nil, errors.Wrap(ErrMalformedHeader, "missing t or v0")
	}
	return &token, nil
}

// Sign computes the lower-case hex HMAC-SHA256 of "{timestamp}.{body}" keyed with secret.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks that signatureHeader authenticates rawBody under secret and is fresh relative to now.
// The returned error wraps one of the package sentinel errors.
func Verify(rawBody []byte, signatureHeader, secret string, now func() time.Time) error {
	if secret == "" {
		return ErrConfig
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return ErrMissingHeader
	}

	token, err := ParseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	if now == nil {
		now = time.Now
	}
	// compare against the window bounds; subtracting an arbitrary timestamp can overflow
	nowUnix, tolerance := now().Unix(), int64(Tolerance/time.Second)
	if token.Timestamp < nowUnix-tolerance || token.Timestamp > nowUnix+tolerance {
		return errors.Wrapf(ErrStaleTimestamp, "timestamp %d outside %d±%ds", token.Timestamp, nowUnix, tolerance)
	}

	if !utf8.Valid(rawBody) {
		return ErrBadEncoding
	}

	expected := Sign(secret, token.Timestamp, rawBody)
	if !hmac.Equal([]byte(expected), []byte(token.MACHex)) {
		return ErrSignatureMismatch
	}
	return nil
}

// WebhookSecret represents a secret used to validate webhook signatures for verifying request authenticity.
type WebhookSecret string

// NewWebhookSecret creates a new WebhookSecret from the provided secret string and returns its address.
// An empty secret yields nil, which callers treat as "not configured".
func NewWebhookSecret(secret string) *WebhookSecret {
	if secret == "" {
		return nil
	}
	s := WebhookSecret(secret)
	return &s
}

// ValidateSignature validates the signature header found in the lower-cased headers map against body.
func (s *WebhookSecret) ValidateSignature(body []byte, headers map[string]string, now func() time.Time) error {
	if s == nil {
		return ErrConfig
	}
	return Verify(body, headers[strings.ToLower(SignatureHeader)], string(*s), now)
}
