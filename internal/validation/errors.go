package validation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSignatureHeader is returned when the request carries no signature header.
	ErrMissingSignatureHeader = errors.New("missing signature header")
	// ErrMalformedSignatureHeader is returned when the signature header cannot be parsed.
	ErrMalformedSignatureHeader = errors.New("malformed signature header")
	// ErrSignatureMismatch is returned when the computed HMAC differs from the received one.
	ErrSignatureMismatch = errors.New("invalid signature")
	// ErrReplayWindowExceeded is returned when the signed timestamp is older than the tolerance.
	ErrReplayWindowExceeded = errors.New("signature timestamp is outside of the tolerance zone")
)

// SignatureError describes a rejected signature. Reason is one of the package sentinels.
type SignatureError struct {
	Reason error
	Detail string
}

func newSignatureError(reason error, format string, args ...any) *SignatureError {
	e := &SignatureError{Reason: reason}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *SignatureError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
}

func (e *SignatureError) Unwrap() error {
	return e.Reason
}
