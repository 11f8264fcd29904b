package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/isometry/calendly-webhook/internal/helpers"
)

// Archiver stores raw delivery bodies.
type Archiver interface {
	PutS3Object(ctx context.Context, id string, bucket string, body []byte) (string, error)
}

type s3ArchiverPostProcessor struct {
	logger   *slog.Logger
	archiver Archiver
	bucket   string
}

// NewS3ArchiverPostProcessor uploads reconciled deliveries to bucket. Upload failures are logged and do not fail the delivery.
func NewS3ArchiverPostProcessor(archiver Archiver, bucket string, opts ...Option) Processor {
	_inst := &s3ArchiverPostProcessor{archiver: archiver, bucket: bucket, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3ArchiverPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:archiver")
}

func (p *s3ArchiverPostProcessor) Process(ctx context.Context, bus *Bus) error {
	id := "event"
	if bus.Event != nil && bus.Event.Event != "" {
		id = bus.Event.Event
	}
	if bus.Result != nil && bus.Result.Comment != nil {
		id = fmt.Sprintf("%s.%s", id, bus.Result.Comment.Name)
	}

	key, err := p.archiver.PutS3Object(ctx, id, p.bucket, bus.Body)
	if err != nil {
		// Archiving never fails a delivery whose comment is stored.
		p.logger.Warn("failed to archive delivery", slog.Any("error", err))
		return nil
	}
	p.logger.Debug("archived delivery", slog.String("key", key))
	return nil
}
