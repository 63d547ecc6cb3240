package janitor

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	kafkax "github.com/NordCoder/ems/internal/repository/kafka"
)

type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

// Controller feeds resource-changed events from Kafka into the Handler.
type Controller struct {
	Log *zap.Logger
	Sub Subscriber
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.StructHandler(func(ctx context.Context, _ []byte, msg *structpb.Struct) error {
		consumed.Inc()
		ev, err := kafkax.DecodeResourceChanged(msg)
		if err != nil {
			skipped.WithLabelValues("malformed").Inc()
			c.Log.Warn("resource-changed: malformed event", zap.Error(err))
			return nil
		}
		return c.UC.HandleResourceChanged(ctx, ev)
	})
	if err := c.Sub.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		c.Log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}
