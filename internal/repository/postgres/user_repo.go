package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/ems/internal/domain/identity"
)

var _ identity.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, role, employee_id, ms_graph_user_id, refresh_token, created_at, updated_at`

const (
	qUserInsert = `
INSERT INTO users (id, email, password_hash, role, employee_id, ms_graph_user_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `;`

	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	qUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1;`

	qUserSetRefresh = `
UPDATE users
SET refresh_token = $2,
    updated_at    = NOW()
WHERE id = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *identity.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert,
		u.ID, u.Email, u.Password, string(u.Role), u.EmployeeID, u.MsGraphUserID)
	return scanUser(row, u)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*identity.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u identity.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u identity.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRefreshToken stores the refresh digest; an empty digest revokes.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, digest string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qUserSetRefresh, id, digest)
	if err != nil {
		return mapErr("user set refresh", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, out *identity.User) error {
	var role string
	if err := row.Scan(
		&out.ID, &out.Email, &out.Password, &role,
		&out.EmployeeID, &out.MsGraphUserID, &out.RefreshToken,
		&out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		return mapErr("scan user", err)
	}
	out.Role = identity.Role(role)
	return nil
}
