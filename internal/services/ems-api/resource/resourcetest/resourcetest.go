// Package resourcetest has transaction and change-recorder fakes for the
// resource services.
package resourcetest

import (
	"context"
	"sync"

	"github.com/NordCoder/ems/internal/domain/outbox"
)

// Tx runs fn inline and counts the transactions it was asked to open.
type Tx struct {
	mu    sync.Mutex
	Calls int
}

func (t *Tx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx)
}

type Change struct {
	Resource string
	Op       outbox.Op
	ID       string
	ActorID  string
}

type Recorder struct {
	mu      sync.Mutex
	Changes []Change
	Err     error
}

func (r *Recorder) ResourceChanged(_ context.Context, resource string, op outbox.Op, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Changes = append(r.Changes, Change{Resource: resource, Op: op, ID: id, ActorID: actorID})
	return nil
}
