package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/pkg/errors"
)

type payloadDecoderPreProcessor struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewPayloadDecoderPreProcessor decodes the verified body into Bus.Event and validates it.
// Malformed JSON is answered with 400 and a well-formed body failing validation with 422.
func NewPayloadDecoderPreProcessor(validate *validator.Validate, opts ...Option) Processor {
	_inst := &payloadDecoderPreProcessor{validate: validate, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *payloadDecoderPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:decoder")
}

func (p *payloadDecoderPreProcessor) Process(_ context.Context, bus *Bus) error {
	var event models.Event
	if err := json.Unmarshal(bus.Body, &event); err != nil {
		p.logger.Warn("parsing webhook payload", slog.Any("error", err))
		status := http.StatusBadRequest
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			status = http.StatusUnprocessableEntity
		}
		bus.Response = models.Response{Body: "invalid JSON payload", StatusCode: status}
		return fmt.Errorf("%w: %w", ErrPayloadDecode, err)
	}

	if err := p.validate.Struct(event); err != nil {
		p.logger.Warn("validation failed", slog.Any("error", err))
		bus.Response = models.Response{Body: describeValidationError(err), StatusCode: http.StatusUnprocessableEntity}
		return fmt.Errorf("%w: %w", ErrPayloadDecode, err)
	}

	bus.Event = &event
	return nil
}

func describeValidationError(err error) string {
	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return "invalid payload"
	}
	fields := make([]string, 0, len(validationErr))
	for _, e := range validationErr {
		fields = append(fields, fmt.Sprintf("%s is invalid", strings.TrimPrefix(e.Namespace(), "Event.")))
	}
	return strings.Join(fields, ", ")
}
