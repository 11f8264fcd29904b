// Package handler turns a raw webhook delivery into a response by running it through the processor chain.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/isometry/calendly-webhook/internal/handler/processor"
	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/settings"
	"github.com/isometry/calendly-webhook/internal/validation"
	"github.com/pkg/errors"
)

// Option configures a Handler.
type Option func(*Handler)

// Handler processes Calendly webhook deliveries.
type Handler struct {
	logger            *slog.Logger
	settings          settings.Provider
	reconciler        processor.Reconciler
	archiver          processor.Archiver
	archiveBucket     string
	validate          *validator.Validate
	verifierOpts      []validation.Option
	lambdaPayloadType string

	processors []processor.Processor
}

// NewHandler creates a Handler. A settings provider and a reconciler are required.
func NewHandler(opts ...Option) (*Handler, error) {
	_inst := &Handler{
		logger: helpers.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.settings == nil {
		return nil, errors.New("settings provider is required")
	}
	if _inst.reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	if _inst.validate == nil {
		_inst.validate = validator.New(validator.WithRequiredStructEnabled())
	}

	_inst.processors = []processor.Processor{
		processor.NewSettingsPreProcessor(_inst.settings),
		processor.NewSignatureValidatorPreProcessor(_inst.verifierOpts),
		processor.NewPayloadDecoderPreProcessor(_inst.validate),
		processor.NewReconcileEventProcessor(_inst.reconciler),
	}
	if _inst.archiver != nil && _inst.archiveBucket != "" {
		_inst.processors = append(_inst.processors, processor.NewS3ArchiverPostProcessor(_inst.archiver, _inst.archiveBucket))
	}
	for _, p := range _inst.processors {
		p.SetLogger(_inst.logger)
	}
	return _inst, nil
}

// Process handles a single delivery. The returned error, when set, is the cause of a non-2xx response.
func (h *Handler) Process(ctx context.Context, req models.Request) (models.Response, error) {
	logger := h.logger
	logger.Info("processing request...")

	bus := &processor.Bus{
		Body:    req.Body,
		Headers: req.Headers,
	}
	if err := processor.Process(ctx, bus, h.processors...); err != nil {
		logger.Warn("request rejected", slog.Int("status", bus.Response.StatusCode), slog.Any("error", err))
		return bus.Response, err
	}

	logger.Info("request processed", slog.Any("bus", bus))
	return bus.Response, nil
}

// GetLambdaPayloadType returns the payload type configured for lambda mode.
func (h *Handler) GetLambdaPayloadType() string {
	return h.lambdaPayloadType
}
