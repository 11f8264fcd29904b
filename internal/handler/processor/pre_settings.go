package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/settings"
)

type settingsPreProcessor struct {
	logger   *slog.Logger
	provider settings.Provider
}

// NewSettingsPreProcessor loads the integration settings and rejects deliveries while the integration is disabled.
func NewSettingsPreProcessor(provider settings.Provider, opts ...Option) Processor {
	_inst := &settingsPreProcessor{provider: provider, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *settingsPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:settings")
}

func (p *settingsPreProcessor) Process(ctx context.Context, bus *Bus) error {
	s, err := p.provider.Settings(ctx)
	if err != nil {
		p.logger.Error("failed to load settings", slog.Any("error", err))
		bus.Response = models.Response{Body: "failed to load settings", StatusCode: http.StatusInternalServerError}
		return err
	}
	if !s.Enabled {
		p.logger.Info("rejecting delivery. integration disabled")
		bus.Response = models.Response{
			Body:       "Calendly integration is currently disabled. You can enable it in Calendly Settings.",
			StatusCode: http.StatusServiceUnavailable,
		}
		return ErrIntegrationDisabled
	}
	bus.Settings = s
	return nil
}
