package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/obs/retry"
)

var cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cache_operations_total",
	Help: "Cache-aside outcomes by namespace.",
}, []string{"namespace", "result"})

// Aside wraps reads with a cache lookup and writes back store results.
// Cache errors never fail a read or a write.
type Aside struct {
	c   Client
	ttl time.Duration
	log *zap.Logger
	pol retry.Policy
}

func NewAside(c Client, ttl time.Duration, log *zap.Logger) *Aside {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log = obs.OrNop(log)
	return &Aside{c: c, ttl: ttl, log: log, pol: retry.InvalidatePolicy(log)}
}

func (a *Aside) Client() Client { return a.c }

// ReadThrough returns the cached value under key, or calls load and caches
// its result. ns only labels metrics and logs.
func ReadThrough[T any](ctx context.Context, a *Aside, ns, key string, load func(context.Context) (T, error)) (T, error) {
	log := obs.WithTrace(ctx, a.log).With(zap.String("cache_key", key))

	if a.c.IsConnected() {
		raw, ok, err := a.c.Get(ctx, key)
		switch {
		case err != nil:
			cacheOps.WithLabelValues(ns, "error").Inc()
			log.Warn("cache read failed", zap.Error(err))
		case ok:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				cacheOps.WithLabelValues(ns, "hit").Inc()
				log.Debug("served from cache")
				return v, nil
			}
			cacheOps.WithLabelValues(ns, "error").Inc()
			log.Warn("cache entry undecodable, reloading")
		default:
			cacheOps.WithLabelValues(ns, "miss").Inc()
		}
	} else {
		cacheOps.WithLabelValues(ns, "skip").Inc()
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if a.c.IsConnected() {
		raw, err := json.Marshal(v)
		if err == nil {
			err = a.c.Set(ctx, key, raw, a.ttl)
		}
		if err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return v, nil
}

// Invalidate drops every list page of ns and the detail entries for ids.
func (a *Aside) Invalidate(ctx context.Context, ns string, ids ...string) {
	log := obs.WithTrace(ctx, a.log).With(zap.String("namespace", ns))
	if !a.c.IsConnected() {
		log.Warn("cache disconnected, invalidation skipped")
		cacheOps.WithLabelValues(ns, "invalidate_skip").Inc()
		return
	}

	targets := make([]string, 0, len(ids)+1)
	targets = append(targets, ListPattern(ns))
	for _, id := range ids {
		if id != "" {
			targets = append(targets, DetailKey(ns, id))
		}
	}
	for _, t := range targets {
		err := retry.Do(ctx, func() error { return a.c.Delete(ctx, t) }, a.pol)
		if err != nil {
			cacheOps.WithLabelValues(ns, "invalidate_error").Inc()
			log.Warn("cache invalidation failed", zap.String("target", t), zap.Error(err))
			continue
		}
		cacheOps.WithLabelValues(ns, "invalidate").Inc()
	}
}
