package outbox

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/obs"
)

var mPurged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "outbox_purged_total", Help: "Delivered messages deleted by retention.",
})

type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RunPurge deletes delivered messages older than retention every interval
// until ctx is done. A non-positive retention disables it.
func RunPurge(ctx context.Context, log *zap.Logger, p Purger, retention, every time.Duration) {
	log = obs.OrNop(log)
	if retention <= 0 {
		log.Info("outbox purge disabled")
		return
	}
	if every <= 0 {
		every = time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.Purge(ctx, retention)
			if err != nil {
				log.Warn("outbox purge failed", zap.Error(err))
				continue
			}
			mPurged.Add(float64(n))
			if n > 0 {
				log.Info("outbox purged", zap.Int64("rows", n), zap.Duration("retention", retention))
			}
		}
	}
}
