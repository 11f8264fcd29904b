package handler

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/isometry/calendly-webhook/internal/handler/processor"
	"github.com/isometry/calendly-webhook/internal/settings"
	"github.com/isometry/calendly-webhook/internal/validation"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSettings sets the provider of the enabled flag and signing key.
func WithSettings(provider settings.Provider) Option {
	return func(h *Handler) {
		h.settings = provider
	}
}

// WithReconciler sets the component recording verified events.
func WithReconciler(reconciler processor.Reconciler) Option {
	return func(h *Handler) {
		h.reconciler = reconciler
	}
}

// WithArchiver uploads reconciled deliveries to bucket.
func WithArchiver(archiver processor.Archiver, bucket string) Option {
	return func(h *Handler) {
		h.archiver = archiver
		h.archiveBucket = bucket
	}
}

// WithValidator replaces the payload validator.
func WithValidator(validate *validator.Validate) Option {
	return func(h *Handler) {
		h.validate = validate
	}
}

// WithClock sets the time source of the replay check.
func WithClock(clock validation.Clock) Option {
	return func(h *Handler) {
		h.verifierOpts = append(h.verifierOpts, validation.WithClock(clock))
	}
}

// WithTolerance sets the maximum accepted signature age.
func WithTolerance(tolerance time.Duration) Option {
	return func(h *Handler) {
		h.verifierOpts = append(h.verifierOpts, validation.WithTolerance(tolerance))
	}
}

// WithLambdaPayloadType sets the lambda payload type for a Handler instance.
func WithLambdaPayloadType(payloadType string) Option {
	return func(h *Handler) {
		h.lambdaPayloadType = payloadType
	}
}
