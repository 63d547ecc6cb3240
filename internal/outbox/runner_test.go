package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/obs/retry"
)

type memRepo struct {
	mu      sync.Mutex
	pending []outbox.Message
	done    []string
}

func (m *memRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, outbox.Message{IdempotencyKey: key, Kind: kind, Data: data, Status: outbox.StatusCreated})
	return nil
}

func (m *memRepo) PickBatch(_ context.Context, batch int, _ time.Duration) ([]outbox.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(batch, len(m.pending))
	out := m.pending[:n]
	m.pending = m.pending[n:]
	return out, nil
}

func (m *memRepo) MarkSuccess(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, keys...)
	return nil
}

type fakeEvents struct {
	got  []outbox.ResourceChanged
	fail int
}

func (f *fakeEvents) PublishResourceChanged(_ context.Context, ev outbox.ResourceChanged) error {
	if f.fail > 0 {
		f.fail--
		return errors.New("broker down")
	}
	f.got = append(f.got, ev)
	return nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{Name: "outbox_test", Attempts: 3, Backoff: retry.ExpoJitter{Base: time.Millisecond}}
}

func TestRunner_Tick_RelaysRecordedChanges(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo)
	ctx := context.Background()

	require.NoError(t, rec.ResourceChanged(ctx, "tickets", outbox.OpCreated, "t-1", "u-1"))
	require.NoError(t, rec.ResourceChanged(ctx, "licenses", outbox.OpDeleted, "l-1", "u-2"))

	pub := &fakeEvents{fail: 1}
	r := NewOutboxRunner(nil, repo, MakeGlobalOutboxHandler(pub, fastPolicy()), 1, 10, time.Second, time.Minute)

	assert.Equal(t, 2, r.Tick(ctx))
	require.Len(t, pub.got, 2)
	assert.Equal(t, "tickets", pub.got[0].Resource)
	assert.Equal(t, outbox.OpDeleted, pub.got[1].Op)
	assert.Len(t, repo.done, 2)
}

func TestRunner_Tick_LeavesFailuresUnmarked(t *testing.T) {
	repo := &memRepo{}
	data, _ := json.Marshal(outbox.ResourceChanged{Resource: "hardware", ID: "h-1"})
	require.NoError(t, repo.Enqueue(context.Background(), "k1", outbox.KindResourceChanged, data))

	pub := &fakeEvents{fail: 10}
	r := NewOutboxRunner(nil, repo, MakeGlobalOutboxHandler(pub, fastPolicy()), 1, 10, time.Second, time.Minute)

	assert.Zero(t, r.Tick(context.Background()))
	assert.Empty(t, repo.done)
	assert.Equal(t, 7, pub.fail, "three attempts under the policy")
}

func TestRunner_Tick_DropsUndeliverable(t *testing.T) {
	repo := &memRepo{}
	ctx := context.Background()
	require.NoError(t, repo.Enqueue(ctx, "bad-kind", outbox.Kind(99), nil))
	require.NoError(t, repo.Enqueue(ctx, "bad-json", outbox.KindResourceChanged, []byte("{")))

	pub := &fakeEvents{}
	r := NewOutboxRunner(nil, repo, MakeGlobalOutboxHandler(pub, fastPolicy()), 1, 10, time.Second, time.Minute)

	assert.Equal(t, 2, r.Tick(ctx))
	assert.ElementsMatch(t, []string{"bad-kind", "bad-json"}, repo.done)
	assert.Empty(t, pub.got)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "resource_changed", outbox.KindResourceChanged.String())
	assert.Equal(t, "kind_99", outbox.Kind(99).String())
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	repo := &memRepo{}
	r := NewOutboxRunner(nil, repo, MakeGlobalOutboxHandler(&fakeEvents{}, fastPolicy()), 2, 10, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

type countingPurger struct {
	calls chan time.Duration
}

func (c *countingPurger) Purge(_ context.Context, olderThan time.Duration) (int64, error) {
	c.calls <- olderThan
	return 3, nil
}

func TestRunPurge_UsesRetention(t *testing.T) {
	p := &countingPurger{calls: make(chan time.Duration, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunPurge(ctx, nil, p, 48*time.Hour, time.Millisecond)

	select {
	case got := <-p.calls:
		assert.Equal(t, 48*time.Hour, got)
	case <-time.After(time.Second):
		t.Fatal("purge never ran")
	}
}

func TestRunPurge_DisabledReturns(t *testing.T) {
	done := make(chan struct{})
	go func() {
		RunPurge(context.Background(), nil, &countingPurger{}, 0, time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled purge kept running")
	}
}
