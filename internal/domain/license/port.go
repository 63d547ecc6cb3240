package license

import "context"

type Repo interface {
	Create(ctx context.Context, l *License) error
	GetByID(ctx context.Context, id string) (*License, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*License, int, error)
	Update(ctx context.Context, l *License) error
	Delete(ctx context.Context, id string) error
}
