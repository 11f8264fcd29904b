package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/validation"
)

type signatureValidatorPreProcessor struct {
	logger       *slog.Logger
	verifierOpts []validation.Option
}

// NewSignatureValidatorPreProcessor verifies the delivery signature against the signing key in Bus.Settings.
func NewSignatureValidatorPreProcessor(verifierOpts []validation.Option, opts ...Option) Processor {
	_inst := &signatureValidatorPreProcessor{verifierOpts: verifierOpts, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *signatureValidatorPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:signature")
}

func (p *signatureValidatorPreProcessor) Process(_ context.Context, bus *Bus) error {
	verifier := validation.NewVerifier(bus.Settings.Secret, p.verifierOpts...)
	if err := verifier.Verify(bus.Headers, bus.Body); err != nil {
		p.logger.Warn("validating signature", slog.Any("error", err))
		bus.Response = models.Response{Body: "signature verification failed", StatusCode: http.StatusForbidden}
		return err
	}
	p.logger.Debug("request body is valid")
	return nil
}
