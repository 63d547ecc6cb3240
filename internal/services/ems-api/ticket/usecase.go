package ticket

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/domain/ticket"
	"github.com/NordCoder/ems/internal/repository/postgres"
	"github.com/NordCoder/ems/internal/services/ems-api/resource"
)

const Resource = "tickets"

var errNotFound = apperr.NotFound("Ticket not found")

type CreateInput struct {
	Title       string
	Description string
	Priority    ticket.Priority
	AssignedTo  string
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *ticket.Status
	Priority    *ticket.Priority
	AssignedTo  *string
}

type Usecase struct {
	repo ticket.Repo
	base *resource.Base
}

func New(repo ticket.Repo, tx postgres.Transactor, events resource.ChangeRecorder, aside *cache.Aside, log *zap.Logger) *Usecase {
	return &Usecase{
		repo: repo,
		base: resource.NewBase(Resource, resource.Messages{
			NotFound: "Ticket not found",
			Conflict: "Ticket already exists",
		}, aside, tx, events, log),
	}
}

// List returns every ticket to admins and managers and only the caller's
// own tickets to everyone else.
func (u *Usecase) List(ctx context.Context, caller *identity.Identity, p domain.Page) (*domain.List[ticket.Ticket], error) {
	return resource.List(ctx, u.base, caller, p, func(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, int, error) {
		return u.repo.List(ctx, ticket.Filter{OwnerID: owner}, limit, offset)
	})
}

func (u *Usecase) Get(ctx context.Context, caller *identity.Identity, id string) (*ticket.Ticket, error) {
	t, err := resource.Get(ctx, u.base, id, u.repo.GetByID)
	if err != nil {
		return nil, err
	}
	if !resource.CanSee(caller, t.CreatedBy) {
		return nil, errNotFound
	}
	return t, nil
}

func (u *Usecase) Create(ctx context.Context, caller *identity.Identity, in CreateInput) (*ticket.Ticket, error) {
	if caller == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if selfAssigned(caller, in.AssignedTo) {
		return nil, apperr.Validation("Cannot assign ticket to self")
	}
	if in.Priority == "" {
		in.Priority = ticket.PriorityMedium
	}
	t := &ticket.Ticket{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      ticket.StatusOpen,
		Priority:    in.Priority,
		CreatedBy:   caller.ID,
		AssignedTo:  in.AssignedTo,
	}
	err := u.base.Write(ctx, caller, outbox.OpCreated, t.ID, func(ctx context.Context) error {
		return u.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (u *Usecase) Update(ctx context.Context, caller *identity.Identity, id string, in UpdateInput) (*ticket.Ticket, error) {
	t, err := u.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.AssignedTo != nil && *in.AssignedTo != t.AssignedTo && selfAssigned(caller, *in.AssignedTo) {
		return nil, apperr.Validation("Cannot assign ticket to self")
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.AssignedTo != nil {
		t.AssignedTo = *in.AssignedTo
	}
	err = u.base.Write(ctx, caller, outbox.OpUpdated, t.ID, func(ctx context.Context) error {
		return u.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (u *Usecase) Delete(ctx context.Context, caller *identity.Identity, id string) error {
	if _, err := u.owned(ctx, caller, id); err != nil {
		return err
	}
	return u.base.Write(ctx, caller, outbox.OpDeleted, id, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	})
}

// owned loads the row from the store, bypassing the cache, for a write.
func (u *Usecase) owned(ctx context.Context, caller *identity.Identity, id string) (*ticket.Ticket, error) {
	if caller == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, u.base.StoreErr(ctx, "get", err)
	}
	if !resource.CanSee(caller, t.CreatedBy) {
		return nil, apperr.Forbidden("Resource ownership denied")
	}
	return t, nil
}

func selfAssigned(caller *identity.Identity, assignee string) bool {
	if assignee == "" {
		return false
	}
	return assignee == caller.ID || (caller.Employee != "" && assignee == caller.Employee)
}
