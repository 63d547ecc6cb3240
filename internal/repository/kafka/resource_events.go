package kafka

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/ems/internal/domain/kafka"
	"github.com/NordCoder/ems/internal/domain/outbox"
)

// TopicResourceChanged carries ticket/hardware/license change events.
const TopicResourceChanged = "ems.resource.changed"

type ResourceEventsKafka struct {
	p *Producer
}

func NewResourceEventsKafka(p *Producer) *ResourceEventsKafka { return &ResourceEventsKafka{p: p} }

var _ kafka.ResourceEvents = (*ResourceEventsKafka)(nil)

// PublishResourceChanged keys by resource and id so changes to one row stay
// ordered within a partition.
func (e *ResourceEventsKafka) PublishResourceChanged(ctx context.Context, ev outbox.ResourceChanged) error {
	msg, err := EncodeResourceChanged(ev)
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, []byte(ev.Resource+":"+ev.ID), msg)
}

func EncodeResourceChanged(ev outbox.ResourceChanged) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"resource": ev.Resource,
		"op":       string(ev.Op),
		"id":       ev.ID,
		"actor_id": ev.ActorID,
		"at":       ev.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode resource event: %w", err)
	}
	return s, nil
}

func DecodeResourceChanged(s *structpb.Struct) (outbox.ResourceChanged, error) {
	f := s.GetFields()
	ev := outbox.ResourceChanged{
		Resource: f["resource"].GetStringValue(),
		Op:       outbox.Op(f["op"].GetStringValue()),
		ID:       f["id"].GetStringValue(),
		ActorID:  f["actor_id"].GetStringValue(),
	}
	if ev.Resource == "" {
		return ev, fmt.Errorf("decode resource event: missing resource")
	}
	if at := f["at"].GetStringValue(); at != "" {
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return ev, fmt.Errorf("decode resource event: %w", err)
		}
		ev.At = t
	}
	return ev, nil
}
