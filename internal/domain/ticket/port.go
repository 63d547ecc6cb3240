package ticket

import "context"

type Repo interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Ticket, int, error)
	Update(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, id string) error
}
