// Package resource holds the read and write paths shared by the ticket,
// hardware and license services.
package resource

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/repository/postgres"
)

type ChangeRecorder interface {
	ResourceChanged(ctx context.Context, resource string, op outbox.Op, id, actorID string) error
}

type Messages struct {
	NotFound string
	Conflict string
}

type Base struct {
	name   string
	ns     string
	msgs   Messages
	aside  *cache.Aside
	tx     postgres.Transactor
	events ChangeRecorder
	log    *zap.Logger
}

func NewBase(name string, msgs Messages, aside *cache.Aside, tx postgres.Transactor, events ChangeRecorder, log *zap.Logger) *Base {
	return &Base{
		name:   name,
		ns:     cache.Namespace(name),
		msgs:   msgs,
		aside:  aside,
		tx:     tx,
		events: events,
		log:    obs.OrNop(log).With(zap.String("resource", name)),
	}
}

func (b *Base) Namespace() string { return b.ns }

// Scope is the owner filter for caller: empty for admins and managers.
func Scope(caller *identity.Identity) string {
	if caller == nil || caller.Privileged() {
		return ""
	}
	return caller.ID
}

// CanSee reports whether caller may read a row owned by owner.
func CanSee(caller *identity.Identity, owner string) bool {
	s := Scope(caller)
	return s == "" || s == owner
}

type ListLoader[T any] func(ctx context.Context, owner string, limit, offset int) ([]*T, int, error)

// List serves one page through the cache, keyed by page, limit and the
// caller's scope.
func List[T any](ctx context.Context, b *Base, caller *identity.Identity, p domain.Page, load ListLoader[T]) (*domain.List[T], error) {
	owner := Scope(caller)
	key := cache.GenerateKey(b.ns, cache.OpList, map[string]any{
		"page":  p.Page,
		"limit": p.Limit,
		"scope": owner,
	})
	return cache.ReadThrough(ctx, b.aside, b.ns, key, func(ctx context.Context) (*domain.List[T], error) {
		items, total, err := load(ctx, owner, p.Limit, p.Offset())
		if err != nil {
			return nil, b.StoreErr(ctx, "list", err)
		}
		return domain.NewList(items, total, p), nil
	})
}

func Get[T any](ctx context.Context, b *Base, id string, load func(context.Context, string) (*T, error)) (*T, error) {
	return cache.ReadThrough(ctx, b.aside, b.ns, cache.DetailKey(b.ns, id), func(ctx context.Context) (*T, error) {
		v, err := load(ctx, id)
		if err != nil {
			return nil, b.StoreErr(ctx, "get", err)
		}
		return v, nil
	})
}

// Write runs fn and records the change in one transaction, then drops the
// cached pages and the row's detail entry.
func (b *Base) Write(ctx context.Context, caller *identity.Identity, op outbox.Op, id string, fn func(ctx context.Context) error) error {
	actor := ""
	if caller != nil {
		actor = caller.ID
	}
	err := b.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return b.events.ResourceChanged(ctx, b.name, op, id, actor)
	})
	if err != nil {
		return b.StoreErr(ctx, string(op), err)
	}
	b.aside.Invalidate(ctx, b.ns, id)
	obs.WithTrace(ctx, b.log).Info("resource written",
		zap.String("op", string(op)), zap.String("id", id), zap.String("principal", actor))
	return nil
}

// StoreErr maps repository errors into the client taxonomy.
func (b *Base) StoreErr(ctx context.Context, op string, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, domain.ErrNotFound):
		return apperr.NotFound(b.msgs.NotFound)
	case errors.Is(err, domain.ErrConflict):
		return apperr.Validation(b.msgs.Conflict)
	case errors.Is(err, context.Canceled):
		return err
	}
	obs.WithTrace(ctx, b.log).Error("store operation failed", zap.String("op", op), zap.Error(err))
	return apperr.Upstream(b.name+" "+op, err)
}
