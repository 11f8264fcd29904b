package handler

import (
	"github.com/isometry/calendly-webhook/internal/crm"
	"github.com/isometry/calendly-webhook/internal/handler/processor"
	"github.com/isometry/calendly-webhook/internal/reconcile"
	"github.com/isometry/calendly-webhook/internal/validation"
)

// Failure causes returned by Handler.Process, matched with errors.Is.
var (
	ErrIntegrationDisabled          = processor.ErrIntegrationDisabled
	ErrMissingSignatureHeader       = validation.ErrMissingSignatureHeader
	ErrMalformedSignatureHeader     = validation.ErrMalformedSignatureHeader
	ErrSignatureMismatch            = validation.ErrSignatureMismatch
	ErrReplayWindowExceeded         = validation.ErrReplayWindowExceeded
	ErrPayloadDecode                = processor.ErrPayloadDecode
	ErrStoreUnavailable             = crm.ErrStoreUnavailable
	ErrReconciliationPartialFailure = reconcile.ErrReconciliationPartialFailure
)
