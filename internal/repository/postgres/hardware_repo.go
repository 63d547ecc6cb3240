package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/ems/internal/domain/hardware"
)

var _ hardware.Repo = (*HardwareRepo)(nil)

type HardwareRepo struct {
	db *DB
}

func NewHardwareRepo(db *DB) *HardwareRepo { return &HardwareRepo{db: db} }

const hardwareColumns = `id, name, type, serial_number, status, assigned_to, purchase_date, created_at, updated_at`

const (
	qHardwareInsert = `
INSERT INTO hardware (id, name, type, serial_number, status, assigned_to, purchase_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + hardwareColumns + `;`

	qHardwareByID = `
SELECT ` + hardwareColumns + `
FROM hardware
WHERE id = $1;`

	qHardwareCount = `
SELECT COUNT(*)
FROM hardware
WHERE ($1::text = '' OR assigned_to = $1);`

	qHardwareList = `
SELECT ` + hardwareColumns + `
FROM hardware
WHERE ($1::text = '' OR assigned_to = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3;`

	qHardwareUpdate = `
UPDATE hardware
SET name          = $2,
    type          = $3,
    serial_number = $4,
    status        = $5,
    assigned_to   = $6,
    purchase_date = $7,
    updated_at    = NOW()
WHERE id = $1
RETURNING ` + hardwareColumns + `;`

	qHardwareDelete = `DELETE FROM hardware WHERE id = $1;`
)

func scanAsset(row pgx.Row, a *hardware.Asset) error {
	var status string
	if err := row.Scan(
		&a.ID, &a.Name, &a.Type, &a.SerialNumber, &status,
		&a.AssignedTo, &a.PurchaseDate, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return mapErr("scan hardware", err)
	}
	a.Status = hardware.Status(status)
	return nil
}

func (r *HardwareRepo) Create(ctx context.Context, a *hardware.Asset) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qHardwareInsert,
		a.ID, a.Name, a.Type, a.SerialNumber, string(a.Status), a.AssignedTo, a.PurchaseDate)
	return scanAsset(row, a)
}

func (r *HardwareRepo) GetByID(ctx context.Context, id string) (*hardware.Asset, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a hardware.Asset
	if err := scanAsset(r.db.Pool.QueryRow(ctx, qHardwareByID, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *HardwareRepo) List(ctx context.Context, f hardware.Filter, limit, offset int) ([]*hardware.Asset, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.Pool.QueryRow(ctx, qHardwareCount, f.OwnerID).Scan(&total); err != nil {
		return nil, 0, mapErr("count hardware", err)
	}

	rows, err := r.db.Pool.Query(ctx, qHardwareList, f.OwnerID, limit, offset)
	if err != nil {
		return nil, 0, mapErr("query hardware", err)
	}
	out, err := collect(rows, scanAsset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *HardwareRepo) Update(ctx context.Context, a *hardware.Asset) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qHardwareUpdate,
		a.ID, a.Name, a.Type, a.SerialNumber, string(a.Status), a.AssignedTo, a.PurchaseDate)
	return scanAsset(row, a)
}

func (r *HardwareRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qHardwareDelete, id)
	if err != nil {
		return mapErr("delete hardware", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
