package outbox

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrPermanent marks a message that can never be delivered, such as an
// unreadable payload. The relay drops it instead of retrying.
var ErrPermanent = errors.New("outbox: permanent failure")

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

const (
	KindResourceChanged Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindResourceChanged:
		return "resource_changed"
	default:
		return "kind_" + strconv.Itoa(int(k))
	}
}

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// ResourceChanged is the payload of KindResourceChanged messages.
type ResourceChanged struct {
	Resource string    `json:"resource"`
	Op       Op        `json:"op"`
	ID       string    `json:"id"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)
