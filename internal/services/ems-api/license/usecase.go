package license

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/license"
	"github.com/NordCoder/ems/internal/domain/outbox"
	"github.com/NordCoder/ems/internal/repository/postgres"
	"github.com/NordCoder/ems/internal/services/ems-api/resource"
)

const Resource = "licenses"

type CreateInput struct {
	SoftwareName string
	Vendor       string
	LicenseKey   string
	Seats        int
	AssignedTo   string
	ExpiresAt    *time.Time
}

type UpdateInput struct {
	SoftwareName *string
	Vendor       *string
	LicenseKey   *string
	Seats        *int
	AssignedTo   *string
	ExpiresAt    *time.Time
}

type Usecase struct {
	repo license.Repo
	base *resource.Base
}

func New(repo license.Repo, tx postgres.Transactor, events resource.ChangeRecorder, aside *cache.Aside, log *zap.Logger) *Usecase {
	return &Usecase{
		repo: repo,
		base: resource.NewBase(Resource, resource.Messages{
			NotFound: "License not found",
			Conflict: "License already exists",
		}, aside, tx, events, log),
	}
}

func (u *Usecase) List(ctx context.Context, caller *identity.Identity, p domain.Page) (*domain.List[license.License], error) {
	return resource.List(ctx, u.base, caller, p, func(ctx context.Context, owner string, limit, offset int) ([]*license.License, int, error) {
		return u.repo.List(ctx, license.Filter{OwnerID: owner}, limit, offset)
	})
}

func (u *Usecase) Get(ctx context.Context, caller *identity.Identity, id string) (*license.License, error) {
	l, err := resource.Get(ctx, u.base, id, u.repo.GetByID)
	if err != nil {
		return nil, err
	}
	if !resource.CanSee(caller, l.AssignedTo) {
		return nil, apperr.NotFound("License not found")
	}
	return l, nil
}

func (u *Usecase) Create(ctx context.Context, caller *identity.Identity, in CreateInput) (*license.License, error) {
	if in.Seats == 0 {
		in.Seats = 1
	}
	l := &license.License{
		ID:           uuid.NewString(),
		SoftwareName: in.SoftwareName,
		Vendor:       in.Vendor,
		LicenseKey:   in.LicenseKey,
		Seats:        in.Seats,
		AssignedTo:   in.AssignedTo,
		ExpiresAt:    in.ExpiresAt,
	}
	err := u.base.Write(ctx, caller, outbox.OpCreated, l.ID, func(ctx context.Context) error {
		return u.repo.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (u *Usecase) Update(ctx context.Context, caller *identity.Identity, id string, in UpdateInput) (*license.License, error) {
	l, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, u.base.StoreErr(ctx, "get", err)
	}
	if in.SoftwareName != nil {
		l.SoftwareName = *in.SoftwareName
	}
	if in.Vendor != nil {
		l.Vendor = *in.Vendor
	}
	if in.LicenseKey != nil {
		l.LicenseKey = *in.LicenseKey
	}
	if in.Seats != nil {
		l.Seats = *in.Seats
	}
	if in.AssignedTo != nil {
		l.AssignedTo = *in.AssignedTo
	}
	if in.ExpiresAt != nil {
		l.ExpiresAt = in.ExpiresAt
	}
	err = u.base.Write(ctx, caller, outbox.OpUpdated, l.ID, func(ctx context.Context) error {
		return u.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (u *Usecase) Delete(ctx context.Context, caller *identity.Identity, id string) error {
	return u.base.Write(ctx, caller, outbox.OpDeleted, id, func(ctx context.Context) error {
		return u.repo.Delete(ctx, id)
	})
}
