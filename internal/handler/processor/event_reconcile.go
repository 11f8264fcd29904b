package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/reconcile"
)

// Reconciler applies a decoded event payload to the entity store.
type Reconciler interface {
	Reconcile(ctx context.Context, payload models.EventPayload) (*reconcile.Result, error)
}

type reconcileEventProcessor struct {
	logger     *slog.Logger
	reconciler Reconciler
}

// NewReconcileEventProcessor records Bus.Event on the matching Lead or Customer.
func NewReconcileEventProcessor(reconciler Reconciler, opts ...Option) Processor {
	_inst := &reconcileEventProcessor{reconciler: reconciler, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *reconcileEventProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:reconcile")
}

func (p *reconcileEventProcessor) Process(ctx context.Context, bus *Bus) error {
	result, err := p.reconciler.Reconcile(ctx, bus.Event.Payload)
	if err != nil {
		p.logger.Error("failed to reconcile event", slog.Any("error", err))
		bus.Response = models.Response{Body: "failed to record event", StatusCode: http.StatusInternalServerError}
		return err
	}
	bus.Result = result
	bus.Response = models.Response{Body: result.Comment.Name, StatusCode: http.StatusCreated}
	return nil
}
