// Package janitor drops cached pages for resources changed by any writer.
package janitor

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/obs/retry"
)

// ErrCacheUnavailable is returned when Redis stays down for the whole wait.
var ErrCacheUnavailable = errors.New("janitor: cache unavailable")

// DefaultWait blocks for roughly a minute before giving up on Redis.
var DefaultWait = retry.Policy{
	Name:     "janitor_cache_wait",
	Attempts: 15,
	Backoff:  retry.ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
}

var (
	consumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_janitor_events_consumed_total",
		Help: "Resource-changed events consumed",
	})
	invalidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_janitor_invalidations_total",
		Help: "Namespaces invalidated by resource",
	}, []string{"resource"})
	skipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_janitor_events_skipped_total",
		Help: "Events ignored by reason",
	}, []string{"reason"})
)

type Handler struct {
	Aside *cache.Aside
	// Resources limits invalidation to known namespaces.
	Resources map[string]bool
	Log       *zap.Logger
	// Wait governs how long a disconnected cache is awaited; zero means DefaultWait.
	Wait retry.Policy
}

func (h *Handler) HandleResourceChanged(ctx context.Context, ev outbox.ResourceChanged) error {
	log := obs.WithTrace(ctx, obs.OrNop(h.Log))
	if !h.Resources[ev.Resource] {
		skipped.WithLabelValues("unknown_resource").Inc()
		log.Warn("resource-changed: unknown resource", zap.String("resource", ev.Resource))
		return nil
	}
	if err := h.awaitCache(ctx); err != nil {
		skipped.WithLabelValues("cache_unavailable").Inc()
		log.Error("resource-changed: cache unavailable, event not applied",
			zap.String("resource", ev.Resource),
			zap.String("id", ev.ID),
			zap.Error(err),
		)
		return err
	}
	h.Aside.Invalidate(ctx, cache.Namespace(ev.Resource), ev.ID)
	invalidated.WithLabelValues(ev.Resource).Inc()
	log.Debug("namespace invalidated",
		zap.String("resource", ev.Resource),
		zap.String("op", string(ev.Op)),
		zap.String("id", ev.ID),
	)
	return nil
}

// awaitCache holds the partition until Redis reports connected, so the
// invalidation is applied late rather than skipped.
func (h *Handler) awaitCache(ctx context.Context) error {
	c := h.Aside.Client()
	if c.IsConnected() {
		return nil
	}
	pol := h.Wait
	if pol.Attempts == 0 {
		pol = DefaultWait
	}
	err := retry.Do(ctx, func() error {
		if !c.IsConnected() {
			return ErrCacheUnavailable
		}
		return nil
	}, pol)
	if err != nil && !errors.Is(err, ErrCacheUnavailable) {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return err
}
