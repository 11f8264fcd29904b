// Package processor provides the steps a webhook delivery runs through and a function chaining them.
package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/reconcile"
	"github.com/isometry/calendly-webhook/internal/settings"
)

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is a single step of the webhook pipeline.
// A step that fails sets Bus.Response and returns the cause.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, bus *Bus) error
}

// Bus carries a delivery through the processors.
type Bus struct {
	Body    []byte
	Headers map[string]string

	Settings *settings.Settings
	Event    *models.Event
	Result   *reconcile.Result

	Response models.Response
}

// LogValue returns the structured log attributes known so far.
func (b *Bus) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("size", len(b.Body))}
	if b.Event != nil {
		attrs = append(attrs, slog.String("event", b.Event.Event))
	}
	if b.Result != nil {
		attrs = append(attrs, slog.Any("result", b.Result))
	}
	return slog.GroupValue(attrs...)
}

// Process runs bus through processors in order, stopping at the first error.
// Processors are shared between concurrent deliveries and must not keep per-delivery state.
func Process(ctx context.Context, bus *Bus, processors ...Processor) error {
	for _, p := range processors {
		if err := p.Process(ctx, bus); err != nil {
			return err
		}
	}
	return nil
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}
