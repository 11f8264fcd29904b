package validation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/isometry/calendly-webhook/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("key")
	testBody   = []byte(`{"event":"invitee.created","payload":{"email":"a@x.com"}}`)
	testNow    = time.Unix(1700000000, 0)
)

func fixedClock(t time.Time) validation.Clock {
	return func() time.Time { return t }
}

func TestVerifier_Verify(t *testing.T) {
	validHeader := validation.Sign(testSecret, testNow.Unix(), testBody)

	testCases := []struct {
		Name     string
		Headers  map[string]string
		Body     []byte
		Expected error
	}{
		{
			Name:     "missing_header",
			Headers:  map[string]string{},
			Body:     testBody,
			Expected: validation.ErrMissingSignatureHeader,
		},
		{
			Name:     "empty_header",
			Headers:  map[string]string{"calendly-webhook-signature": ""},
			Body:     testBody,
			Expected: validation.ErrMissingSignatureHeader,
		},
		{
			Name:     "single_token",
			Headers:  map[string]string{"calendly-webhook-signature": "t=1700000000"},
			Body:     testBody,
			Expected: validation.ErrMalformedSignatureHeader,
		},
		{
			Name:     "token_without_separator",
			Headers:  map[string]string{"calendly-webhook-signature": "t=1700000000,v1"},
			Body:     testBody,
			Expected: validation.ErrMalformedSignatureHeader,
		},
		{
			Name:     "wrong_signature",
			Headers:  map[string]string{"calendly-webhook-signature": "t=1700000000,v1=0000000000000000000000000000000000000000000000000000000000000000"},
			Body:     testBody,
			Expected: validation.ErrSignatureMismatch,
		},
		{
			Name:     "tampered_body",
			Headers:  map[string]string{"calendly-webhook-signature": validHeader},
			Body:     []byte(`{"event":"invitee.created","payload":{"email":"b@x.com"}}`),
			Expected: validation.ErrSignatureMismatch,
		},
		{
			Name:    "valid_lowercase_key",
			Headers: map[string]string{"calendly-webhook-signature": validHeader},
			Body:    testBody,
		},
		{
			Name:    "valid_canonical_key",
			Headers: map[string]string{validation.SignatureHeader: validHeader},
			Body:    testBody,
		},
		{
			Name:    "valid_mixed_case_key",
			Headers: map[string]string{"CALENDLY-WEBHOOK-SIGNATURE": validHeader},
			Body:    testBody,
		},
		{
			Name:    "extra_tokens_ignored",
			Headers: map[string]string{"calendly-webhook-signature": validHeader + ",v0=deadbeef"},
			Body:    testBody,
		},
	}

	v := validation.NewVerifier(testSecret, validation.WithClock(fixedClock(testNow)))
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := v.Verify(tc.Headers, tc.Body)
			if tc.Expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.Expected)
			var sigErr *validation.SignatureError
			assert.True(t, errors.As(err, &sigErr))
		})
	}
}

func TestVerifier_ReplayWindow(t *testing.T) {
	testCases := []struct {
		Name      string
		Timestamp string
		Expected  error
	}{
		{
			Name:      "fresh",
			Timestamp: "1700000000",
		},
		{
			Name:      "exactly_at_tolerance",
			Timestamp: "1699999820",
		},
		{
			Name:      "just_past_tolerance",
			Timestamp: "1699999819.9",
			Expected:  validation.ErrReplayWindowExceeded,
		},
		{
			Name:      "an_hour_old",
			Timestamp: "1699996400",
			Expected:  validation.ErrReplayWindowExceeded,
		},
		{
			Name:      "future_timestamp",
			Timestamp: "1700086400",
		},
		{
			Name:      "non_numeric_timestamp",
			Timestamp: "yesterday",
			Expected:  validation.ErrMalformedSignatureHeader,
		},
		{
			Name:      "nan_timestamp",
			Timestamp: "NaN",
			Expected:  validation.ErrMalformedSignatureHeader,
		},
	}

	v := validation.NewVerifier(testSecret, validation.WithClock(fixedClock(testNow)))
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			header := "t=" + tc.Timestamp + ",v1=" + validation.ComputeSignature(testSecret, tc.Timestamp, testBody)
			err := v.Verify(map[string]string{"calendly-webhook-signature": header}, testBody)
			if tc.Expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.Expected)
			}
		})
	}
}

func TestVerifier_SingleByteTamper(t *testing.T) {
	header := validation.Sign(testSecret, testNow.Unix(), testBody)
	v := validation.NewVerifier(testSecret, validation.WithClock(fixedClock(testNow)))
	require.NoError(t, v.Verify(map[string]string{"calendly-webhook-signature": header}, testBody))

	for i := range testBody {
		tampered := append([]byte(nil), testBody...)
		tampered[i] ^= 0x01
		err := v.Verify(map[string]string{"calendly-webhook-signature": header}, tampered)
		assert.ErrorIs(t, err, validation.ErrSignatureMismatch, "byte %d", i)
	}
}

func TestVerifier_WithTolerance(t *testing.T) {
	ts := testNow.Add(-5 * time.Minute).Unix()
	header := map[string]string{"calendly-webhook-signature": validation.Sign(testSecret, ts, testBody)}

	strict := validation.NewVerifier(testSecret, validation.WithClock(fixedClock(testNow)))
	assert.ErrorIs(t, strict.Verify(header, testBody), validation.ErrReplayWindowExceeded)

	relaxed := validation.NewVerifier(testSecret,
		validation.WithClock(fixedClock(testNow)),
		validation.WithTolerance(10*time.Minute))
	assert.NoError(t, relaxed.Verify(header, testBody))
}

func TestParseSignatureHeader(t *testing.T) {
	testCases := []struct {
		Name        string
		Input       string
		Expected    validation.SignatureHeaderValue
		ExpectError bool
	}{
		{
			Name:     "calendly_format",
			Input:    "t=1492774577,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd",
			Expected: validation.SignatureHeaderValue{Timestamp: "1492774577", Signature: "5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd"},
		},
		{
			Name:     "positional_not_keyed",
			Input:    "v1=abc,t=123",
			Expected: validation.SignatureHeaderValue{Timestamp: "abc", Signature: "123"},
		},
		{
			Name:        "empty",
			Input:       "",
			ExpectError: true,
		},
		{
			Name:        "no_comma",
			Input:       "t=1492774577",
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := validation.ParseSignatureHeader(tc.Input)
			if tc.ExpectError {
				assert.ErrorIs(t, err, validation.ErrMalformedSignatureHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestComputeSignature(t *testing.T) {
	sig := validation.ComputeSignature(testSecret, "1700000000", testBody)
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, validation.ComputeSignature(testSecret, "1700000000", testBody))
	assert.NotEqual(t, sig, validation.ComputeSignature(testSecret, "1700000001", testBody))
	assert.NotEqual(t, sig, validation.ComputeSignature([]byte("other"), "1700000000", testBody))
}
