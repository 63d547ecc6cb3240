package hardware

import "context"

type Repo interface {
	Create(ctx context.Context, a *Asset) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Asset, int, error)
	Update(ctx context.Context, a *Asset) error
	Delete(ctx context.Context, id string) error
}
