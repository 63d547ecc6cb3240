package kafka

import (
	"context"

	"github.com/NordCoder/ems/internal/domain/outbox"
)

type ResourceEvents interface {
	PublishResourceChanged(ctx context.Context, ev outbox.ResourceChanged) error
}
