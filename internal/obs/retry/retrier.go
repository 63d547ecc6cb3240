package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Backoff returns the pause before the attempt following attempt (0-based).
type Backoff interface {
	Next(attempt int) time.Duration
}

// Constant waits the same amount between every attempt.
type Constant time.Duration

func (c Constant) Next(int) time.Duration { return time.Duration(c) }

// ExpoJitter doubles Base per attempt up to Max and spreads the result by
// +/- Jitter (a fraction of the delay).
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(2, float64(max(attempt, 0)))
	if b.Max > 0 {
		d = math.Min(d, float64(b.Max))
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

func (p Policy) normalized() Policy {
	if p.Name == "" {
		p.Name = "default"
	}
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = Constant(0)
	}
	if p.Retryable == nil {
		p.Retryable = func(err error) bool { return err != nil }
	}
	return p
}

const (
	outcomeOK        = "ok"
	outcomeExhausted = "exhausted"
	outcomeCanceled  = "canceled"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_retry_attempts_total",
		Help: "Calls made under a retry policy, first attempt included.",
	}, []string{"policy"})
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ems_retry_outcomes_total",
		Help: "Finished retry loops by outcome.",
	}, []string{"policy", "outcome"})
	loopSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ems_retry_duration_seconds",
		Help:    "Wall time of a retry loop, backoff included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"policy"})
)

// Do calls fn until it succeeds, the error is not retryable, the attempts
// run out or ctx is done.
func Do(ctx context.Context, fn func() error, p Policy) error {
	p = p.normalized()
	start := time.Now()
	span := trace.SpanFromContext(ctx)

	finish := func(outcome string, err error) error {
		outcomesTotal.WithLabelValues(p.Name, outcome).Inc()
		loopSeconds.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
		if outcome == outcomeExhausted && p.OnExhaust != nil {
			p.OnExhaust(err)
		}
		return err
	}

	for attempt := 0; ; attempt++ {
		attemptsTotal.WithLabelValues(p.Name).Inc()
		err := fn()
		if err == nil {
			return finish(outcomeOK, nil)
		}
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, err)
		}
		if span.IsRecording() {
			span.AddEvent("retry.attempt", trace.WithAttributes(
				attribute.String("retry.policy", p.Name),
				attribute.Int("retry.attempt", attempt+1),
				attribute.String("retry.error", err.Error()),
			))
		}
		if !p.Retryable(err) || attempt+1 >= p.Attempts {
			return finish(outcomeExhausted, err)
		}

		t := time.NewTimer(p.Backoff.Next(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return finish(outcomeCanceled, ctx.Err())
		case <-t.C:
		}
	}
}
