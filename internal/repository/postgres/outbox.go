package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/NordCoder/ems/internal/domain/outbox"
)

var _ outbox.Repository = (*OutboxRepo)(nil)

// OutboxRepo stores resource-changed events next to the rows they
// describe. Rows move CREATED -> IN_PROGRESS -> SUCCESS; an IN_PROGRESS
// row older than the pick TTL is picked again.
type OutboxRepo struct{ db *DB }

func NewOutboxRepo(db *DB) *OutboxRepo { return &OutboxRepo{db: db} }

const (
	qOutboxInsert = `
INSERT INTO outbox (idempotency_key, data, status, kind, traceparent, tracestate, baggage)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (idempotency_key) DO NOTHING`

	qOutboxClaim = `
WITH due AS (
    SELECT idempotency_key FROM outbox
    WHERE status = $3
       OR (status = $4 AND updated_at < now() - make_interval(secs => $2))
    ORDER BY created_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
UPDATE outbox o SET status = $4, updated_at = now()
FROM due WHERE o.idempotency_key = due.idempotency_key
RETURNING o.idempotency_key, o.kind, o.data, o.status, o.created_at, o.updated_at, o.traceparent, o.tracestate, o.baggage`

	qOutboxDone = `
UPDATE outbox SET status = $2, updated_at = now()
WHERE idempotency_key = ANY($1)`

	qOutboxPurge = `
DELETE FROM outbox WHERE status = $1 AND updated_at < now() - make_interval(secs => $2)`
)

// Enqueue joins the caller's transaction when ctx carries one and records
// the current trace context so the relay continues the trace.
func (r *OutboxRepo) Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tc := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, tc)

	_, err := r.db.execQueryer(ctx).Exec(ctx, qOutboxInsert,
		key, data, string(outbox.StatusCreated), int(kind),
		tc.Get("traceparent"), tc.Get("tracestate"), tc.Get("baggage"))
	if err != nil {
		return fmt.Errorf("outbox enqueue %s: %w", key, err)
	}
	return nil
}

// PickBatch claims up to batch due rows, oldest first. Concurrent relays
// skip each other's locked rows.
func (r *OutboxRepo) PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if batch <= 0 {
		return nil, errors.New("outbox pick: batch must be positive")
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qOutboxClaim, batch, inProgressTTL.Seconds(),
		string(outbox.StatusCreated), string(outbox.StatusInProgress))
	if err != nil {
		return nil, fmt.Errorf("outbox pick: %w", err)
	}
	defer rows.Close()

	out := make([]outbox.Message, 0, batch)
	for rows.Next() {
		m, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox pick: %w", err)
	}
	return out, nil
}

func scanOutbox(row interface{ Scan(...any) error }) (outbox.Message, error) {
	var (
		m      outbox.Message
		kind   int
		status string
	)
	if err := row.Scan(&m.IdempotencyKey, &kind, &m.Data, &status, &m.CreatedAt, &m.UpdatedAt,
		&m.Traceparent, &m.Tracestate, &m.Baggage); err != nil {
		return m, fmt.Errorf("outbox scan: %w", err)
	}
	m.Kind = outbox.Kind(kind)
	m.Status = outbox.Status(status)
	return m, nil
}

func (r *OutboxRepo) MarkSuccess(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.Pool.Exec(ctx, qOutboxDone, keys, string(outbox.StatusSuccess)); err != nil {
		return fmt.Errorf("outbox mark success: %w", err)
	}
	return nil
}

// Purge deletes delivered rows last touched more than olderThan ago.
func (r *OutboxRepo) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Pool.Exec(ctx, qOutboxPurge, string(outbox.StatusSuccess), olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("outbox purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
