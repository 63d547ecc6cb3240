package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"github.com/NordCoder/ems/internal/domain/kafka"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/obs/retry"
)

var (
	deliverSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_deliver_duration_seconds",
		Help:    "Time to deliver one outbox message, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	deliverFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_deliver_failures_total",
		Help: "Deliveries that failed after retries.",
	}, []string{"kind"})
)

// MakeGlobalOutboxHandler maps each outbox kind to its publisher. Every
// handler retries under pol, except for ErrPermanent failures.
func MakeGlobalOutboxHandler(pub kafka.ResourceEvents, pol retry.Policy) outbox.GlobalHandler {
	handlers := map[outbox.Kind]outbox.KindHandler{
		outbox.KindResourceChanged: deliver(outbox.KindResourceChanged, publishResourceChanged(pub), pol),
	}
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		h, ok := handlers[kind]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported kind %s", outbox.ErrPermanent, kind)
		}
		return h, nil
	}
}

func publishResourceChanged(pub kafka.ResourceEvents) outbox.KindHandler {
	return func(ctx context.Context, data []byte) error {
		var ev outbox.ResourceChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("%w: resource-changed payload: %v", outbox.ErrPermanent, err)
		}
		return pub.PublishResourceChanged(ctx, ev)
	}
}

func deliver(kind outbox.Kind, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	if pol.Name == "" {
		pol.Name = "outbox_" + kind.String()
	}
	retryable := pol.Retryable
	pol.Retryable = func(err error) bool {
		if errors.Is(err, outbox.ErrPermanent) {
			return false
		}
		return retryable == nil || retryable(err)
	}

	tr := otel.Tracer("ems/outbox")
	label := kind.String()
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.deliver "+label)
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		deliverSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			deliverFailures.WithLabelValues(label).Inc()
		}
		return err
	}
}
