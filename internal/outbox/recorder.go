package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/ems/internal/domain/outbox"
)

// Recorder enqueues change events. Call it inside the write transaction.
type Recorder struct {
	repo outbox.Repository
	now  func() time.Time
}

func NewRecorder(repo outbox.Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

func (r *Recorder) ResourceChanged(ctx context.Context, resource string, op outbox.Op, id, actorID string) error {
	data, err := json.Marshal(outbox.ResourceChanged{
		Resource: resource,
		Op:       op,
		ID:       id,
		ActorID:  actorID,
		At:       r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal resource event: %w", err)
	}
	return r.repo.Enqueue(ctx, uuid.NewString(), outbox.KindResourceChanged, data)
}
