package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/cache/cachetest"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/obs/retry"
	kafkax "github.com/NordCoder/ems/internal/repository/kafka"
)

// replay hands every payload to the handler once, then reports ctx done.
type replay struct {
	payloads [][]byte
	errs     []error
}

func (r *replay) Consume(ctx context.Context, h kafkax.Handler) error {
	for _, p := range r.payloads {
		r.errs = append(r.errs, h(ctx, nil, p))
	}
	return context.Canceled
}

func encode(t *testing.T, ev outbox.ResourceChanged) []byte {
	t.Helper()
	s, err := kafkax.EncodeResourceChanged(ev)
	require.NoError(t, err)
	b, err := proto.Marshal(s)
	require.NoError(t, err)
	return b
}

func seed(t *testing.T, mem *cachetest.Memory, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, mem.Set(context.Background(), k, []byte(`{}`), 0))
	}
}

func TestController_InvalidatesChangedNamespace(t *testing.T) {
	mem := cachetest.NewMemory()
	tickets, licenses := cache.Namespace("tickets"), cache.Namespace("licenses")
	seed(t, mem,
		cache.GenerateKey(tickets, cache.OpList, map[string]any{"page": 1, "limit": 10, "scope": ""}),
		cache.DetailKey(tickets, "t-1"),
		cache.DetailKey(tickets, "t-2"),
		cache.GenerateKey(licenses, cache.OpList, map[string]any{"page": 1, "limit": 10, "scope": ""}),
	)

	sub := &replay{payloads: [][]byte{
		encode(t, outbox.ResourceChanged{Resource: "tickets", Op: outbox.OpUpdated, ID: "t-1", At: time.Now()}),
		encode(t, outbox.ResourceChanged{Resource: "payroll", Op: outbox.OpDeleted, ID: "p-1"}),
	}}
	c := &Controller{
		Log: zap.NewNop(),
		Sub: sub,
		UC: &Handler{
			Aside:     cache.NewAside(mem, cache.DefaultTTL, nil),
			Resources: map[string]bool{"tickets": true, "hardware": true, "licenses": true},
		},
	}

	err := c.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []error{nil, nil}, sub.errs)
	assert.ElementsMatch(t, []string{
		cache.DetailKey(tickets, "t-2"),
		cache.GenerateKey(licenses, cache.OpList, map[string]any{"page": 1, "limit": 10, "scope": ""}),
	}, mem.Keys())
}

func TestController_MalformedEventsAreSkipped(t *testing.T) {
	mem := cachetest.NewMemory()
	seed(t, mem, cache.DetailKey(cache.Namespace("tickets"), "t-1"))

	noResource, err := proto.Marshal(&structpb.Struct{})
	require.NoError(t, err)
	sub := &replay{payloads: [][]byte{noResource, []byte("\xff\xff not protobuf")}}
	c := &Controller{
		Log: zap.NewNop(),
		Sub: sub,
		UC:  &Handler{Aside: cache.NewAside(mem, cache.DefaultTTL, nil), Resources: map[string]bool{"tickets": true}},
	}

	require.NoError(t, c.Run(context.Background()))
	require.Len(t, sub.errs, 2)
	assert.NoError(t, sub.errs[0], "undecodable events are dropped")
	assert.Error(t, sub.errs[1], "wire errors go back to the consumer")
	assert.Len(t, mem.Keys(), 1)
}

func TestHandler_WaitsForCacheToReconnect(t *testing.T) {
	mem := cachetest.NewMemory()
	seed(t, mem, cache.DetailKey(cache.Namespace("hardware"), "h-1"))
	mem.SetConnected(false)

	h := &Handler{
		Aside:     cache.NewAside(mem, cache.DefaultTTL, nil),
		Resources: map[string]bool{"hardware": true},
		Wait:      retry.Policy{Name: "test", Attempts: 50, Backoff: retry.Constant(time.Millisecond)},
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		mem.SetConnected(true)
	}()

	err := h.HandleResourceChanged(context.Background(), outbox.ResourceChanged{Resource: "hardware", ID: "h-1"})
	require.NoError(t, err)
	assert.Empty(t, mem.Keys())
}

func TestHandler_CacheStaysDown(t *testing.T) {
	mem := cachetest.NewMemory()
	mem.SetConnected(false)
	h := &Handler{
		Aside:     cache.NewAside(mem, cache.DefaultTTL, nil),
		Resources: map[string]bool{"hardware": true},
		Wait:      retry.Policy{Name: "test", Attempts: 3, Backoff: retry.Constant(time.Millisecond)},
	}

	err := h.HandleResourceChanged(context.Background(), outbox.ResourceChanged{Resource: "hardware", ID: "h-1"})
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.Zero(t, mem.Deletes)
}

func TestHandler_CacheWaitCanceled(t *testing.T) {
	mem := cachetest.NewMemory()
	mem.SetConnected(false)
	h := &Handler{Aside: cache.NewAside(mem, cache.DefaultTTL, nil), Resources: map[string]bool{"hardware": true}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.HandleResourceChanged(ctx, outbox.ResourceChanged{Resource: "hardware", ID: "h-1"})
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, mem.Deletes)
}
