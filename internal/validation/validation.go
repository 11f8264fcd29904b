// Package validation provides functionality for validating Calendly webhook signatures to verify request authenticity.
package validation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader is the header carrying the timestamped HMAC-SHA256 signature.
	SignatureHeader = "Calendly-Webhook-Signature"
	// DefaultTolerance is the maximum age of a signed timestamp.
	DefaultTolerance = 180 * time.Second
)

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock overrides the time source used for the replay window check.
func WithClock(clock Clock) Option {
	return func(v *Verifier) {
		v.clock = clock
	}
}

// WithTolerance sets the replay window. Non-positive values keep the default.
func WithTolerance(tolerance time.Duration) Option {
	return func(v *Verifier) {
		if tolerance > 0 {
			v.tolerance = tolerance
		}
	}
}

// SignatureHeaderValue is the parsed form of the Calendly-Webhook-Signature header.
type SignatureHeaderValue struct {
	Timestamp string
	Signature string
}

// Verifier validates the Calendly-Webhook-Signature of inbound deliveries.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	clock     Clock
}

// NewVerifier returns a Verifier signing with secret.
func NewVerifier(secret []byte, opts ...Option) *Verifier {
	_inst := &Verifier{
		secret:    secret,
		tolerance: DefaultTolerance,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// Verify checks the signature header against body and rejects stale timestamps.
// Header keys are matched case-insensitively. Timestamps in the future are accepted.
func (v *Verifier) Verify(headers map[string]string, body []byte) error {
	value, found := lookupHeader(headers, SignatureHeader)
	if !found || value == "" {
		return newSignatureError(ErrMissingSignatureHeader, "header %s not present", SignatureHeader)
	}

	sig, err := ParseSignatureHeader(value)
	if err != nil {
		return err
	}

	expected := ComputeSignature(v.secret, sig.Timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(sig.Signature)) {
		return newSignatureError(ErrSignatureMismatch, "")
	}

	ts, err := strconv.ParseFloat(sig.Timestamp, 64)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return newSignatureError(ErrMalformedSignatureHeader, "timestamp %q is not a number", sig.Timestamp)
	}

	now := float64(v.clock().UnixNano()) / float64(time.Second)
	if ts < now-v.tolerance.Seconds() {
		return newSignatureError(ErrReplayWindowExceeded, "timestamp is %.1fs old", now-ts)
	}
	return nil
}

// ParseSignatureHeader splits a header of the form "t=<timestamp>,v1=<signature>".
// Tokens are taken by position: the first is the timestamp and the second the signature.
// Key names are not checked and any further tokens are ignored.
func ParseSignatureHeader(value string) (SignatureHeaderValue, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) < 2 {
		return SignatureHeaderValue{}, newSignatureError(ErrMalformedSignatureHeader, "expected at least 2 tokens, got %d", len(tokens))
	}

	var values [2]string
	for i := range values {
		_, v, found := strings.Cut(tokens[i], "=")
		if !found {
			return SignatureHeaderValue{}, newSignatureError(ErrMalformedSignatureHeader, "token %d is not a key=value pair", i)
		}
		values[i] = v
	}
	return SignatureHeaderValue{Timestamp: values[0], Signature: values[1]}, nil
}

// ComputeSignature returns the lowercase hex HMAC-SHA256 of "<timestamp>.<body>".
func ComputeSignature(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces a Calendly-Webhook-Signature header value for body at timestamp.
func Sign(secret []byte, timestamp int64, body []byte) string {
	ts := strconv.FormatInt(timestamp, 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, ComputeSignature(secret, ts, body))
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	if v, ok := headers[strings.ToLower(name)]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
