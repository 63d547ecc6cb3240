package hardware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/hardware"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/repository/postgres"
	"github.com/NordCoder/ems/internal/services/ems-api/resource"
)

const Resource = "hardware"

type CreateInput struct {
	Name         string
	Type         string
	SerialNumber string
	AssignedTo   string
	PurchaseDate *time.Time
}

type UpdateInput struct {
	Name         *string
	Type         *string
	SerialNumber *string
	Status       *hardware.Status
	AssignedTo   *string
	PurchaseDate *time.Time
}

// Usecase manages hardware assets. Role checks for writes happen at the
// route; reads are scoped to the assignee for employees.
type Usecase struct {
	repo hardware.Repo
	base *resource.Base
}

func New(repo hardware.Repo, tx postgres.Transactor, events resource.ChangeRecorder, aside *cache.Aside, log *zap.Logger) *Usecase {
	return &Usecase{
		repo: repo,
		base: resource.NewBase(Resource, resource.Messages{
			NotFound: "Hardware not found",
			Conflict: "Serial number already registered",
		}, aside, tx, events, log),
	}
}

func (u *Usecase) List(ctx context.Context, caller *identity.Identity, p domain.Page) (*domain.List[hardware.Asset], error) {
	return resource.List(ctx, u.base, caller, p, func(ctx context.Context, owner string, limit, offset int) ([]*hardware.Asset, int, error) {
		return u.repo.List(ctx, hardware.Filter{OwnerID: owner}, limit, offset)
	})
}

func (u *Usecase) Get(ctx context.Context, caller *identity.Identity, id string) (*hardware.Asset, error) {
	a, err := resource.Get(ctx, u.base, id, u.repo.GetByID)
	if err != nil {
		return nil, err
	}
	if !resource.CanSee(caller, a.AssignedTo) {
		return nil, apperr.NotFound("Hardware not found")
	}
	return a, nil
}

func (u *Usecase) Create(ctx context.Context, caller *identity.Identity, in CreateInput) (*hardware.Asset, error) {
	a := &hardware.Asset{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Type:         in.Type,
		SerialNumber: in.SerialNumber,
		Status:       hardware.StatusAvailable,
		AssignedTo:   in.AssignedTo,
		PurchaseDate: in.PurchaseDate,
	}
	if a.AssignedTo != "" {
		a.Status = hardware.StatusAssigned
	}
	err := u.base.Write(ctx, caller, outbox.OpCreated, a.ID, func(ctx context.Context) error {
		return u.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (u *Usecase) Update(ctx context.Context, caller *identity.Identity, id string, in UpdateInput) (*hardware.Asset, error) {
	a, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, u.base.StoreErr(ctx, "get", err)
	}
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.SerialNumber != nil {
		a.SerialNumber = *in.SerialNumber
	}
	if in.AssignedTo != nil {
		a.AssignedTo = *in.AssignedTo
		switch {
		case a.AssignedTo != "" && a.Status == hardware.StatusAvailable:
			a.Status = hardware.StatusAssigned
		case a.AssignedTo == "" && a.Status == hardware.StatusAssigned:
			a.Status = hardware.StatusAvailable
		}
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.PurchaseDate != nil {
		a.PurchaseDate = in.PurchaseDate
	}
	err = u.base.Write(ctx, caller, outbox.OpUpdated, a.ID, func(ctx context.Context) error {
		return u.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (u *Usecase) Delete(ctx context.Context, caller *identity.Identity, id string) error {
	return u.base.Write(ctx, caller, outbox.OpDeleted, id, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	})
}
