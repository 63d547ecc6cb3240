package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/ems/internal/domain/license"
)

var _ license.Repo = (*LicenseRepo)(nil)

type LicenseRepo struct {
	db *DB
}

func NewLicenseRepo(db *DB) *LicenseRepo { return &LicenseRepo{db: db} }

const licenseColumns = `id, software_name, vendor, license_key, seats, assigned_to, expires_at, created_at, updated_at`

const (
	qLicenseInsert = `
INSERT INTO licenses (id, software_name, vendor, license_key, seats, assigned_to, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + licenseColumns + `;`

	qLicenseByID = `
SELECT ` + licenseColumns + `
FROM licenses
WHERE id = $1;`

	qLicenseCount = `
SELECT COUNT(*)
FROM licenses
WHERE ($1::text = '' OR assigned_to = $1);`

	qLicenseList = `
SELECT ` + licenseColumns + `
FROM licenses
WHERE ($1::text = '' OR assigned_to = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3;`

	qLicenseUpdate = `
UPDATE licenses
SET software_name = $2,
    vendor        = $3,
    license_key   = $4,
    seats         = $5,
    assigned_to   = $6,
    expires_at    = $7,
    updated_at    = NOW()
WHERE id = $1
RETURNING ` + licenseColumns + `;`

	qLicenseDelete = `DELETE FROM licenses WHERE id = $1;`
)

func scanLicense(row pgx.Row, l *license.License) error {
	if err := row.Scan(
		&l.ID, &l.SoftwareName, &l.Vendor, &l.LicenseKey, &l.Seats,
		&l.AssignedTo, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return mapErr("scan license", err)
	}
	return nil
}

func (r *LicenseRepo) Create(ctx context.Context, l *license.License) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qLicenseInsert,
		l.ID, l.SoftwareName, l.Vendor, l.LicenseKey, l.Seats, l.AssignedTo, l.ExpiresAt)
	return scanLicense(row, l)
}

func (r *LicenseRepo) GetByID(ctx context.Context, id string) (*license.License, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var l license.License
	if err := scanLicense(r.db.Pool.QueryRow(ctx, qLicenseByID, id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LicenseRepo) List(ctx context.Context, f license.Filter, limit, offset int) ([]*license.License, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.Pool.QueryRow(ctx, qLicenseCount, f.OwnerID).Scan(&total); err != nil {
		return nil, 0, mapErr("count licenses", err)
	}

	rows, err := r.db.Pool.Query(ctx, qLicenseList, f.OwnerID, limit, offset)
	if err != nil {
		return nil, 0, mapErr("query licenses", err)
	}
	out, err := collect(rows, scanLicense)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *LicenseRepo) Update(ctx context.Context, l *license.License) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qLicenseUpdate,
		l.ID, l.SoftwareName, l.Vendor, l.LicenseKey, l.Seats, l.AssignedTo, l.ExpiresAt)
	return scanLicense(row, l)
}

func (r *LicenseRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qLicenseDelete, id)
	if err != nil {
		return mapErr("delete license", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
