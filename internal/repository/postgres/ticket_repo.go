package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/ems/internal/domain/ticket"
)

var _ ticket.Repo = (*TicketRepo)(nil)

type TicketRepo struct {
	db *DB
}

func NewTicketRepo(db *DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, title, description, status, priority, created_by, assigned_to, created_at, updated_at`

const (
	qTicketInsert = `
INSERT INTO tickets (id, title, description, status, priority, created_by, assigned_to)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + ticketColumns + `;`

	qTicketByID = `
SELECT ` + ticketColumns + `
FROM tickets
WHERE id = $1;`

	qTicketCount = `
SELECT COUNT(*)
FROM tickets
WHERE ($1::text = '' OR created_by = $1);`

	qTicketList = `
SELECT ` + ticketColumns + `
FROM tickets
WHERE ($1::text = '' OR created_by = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3;`

	qTicketUpdate = `
UPDATE tickets
SET title       = $2,
    description = $3,
    status      = $4,
    priority    = $5,
    assigned_to = $6,
    updated_at  = NOW()
WHERE id = $1
RETURNING ` + ticketColumns + `;`

	qTicketDelete = `DELETE FROM tickets WHERE id = $1;`
)

func scanTicket(row pgx.Row, t *ticket.Ticket) error {
	var status, priority string
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority,
		&t.CreatedBy, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return mapErr("scan ticket", err)
	}
	t.Status = ticket.Status(status)
	t.Priority = ticket.Priority(priority)
	return nil
}

func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qTicketInsert,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.CreatedBy, t.AssignedTo)
	return scanTicket(row, t)
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t ticket.Ticket
	if err := scanTicket(r.db.Pool.QueryRow(ctx, qTicketByID, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepo) List(ctx context.Context, f ticket.Filter, limit, offset int) ([]*ticket.Ticket, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.Pool.QueryRow(ctx, qTicketCount, f.OwnerID).Scan(&total); err != nil {
		return nil, 0, mapErr("count tickets", err)
	}

	rows, err := r.db.Pool.Query(ctx, qTicketList, f.OwnerID, limit, offset)
	if err != nil {
		return nil, 0, mapErr("query tickets", err)
	}
	out, err := collect(rows, scanTicket)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qTicketUpdate,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.AssignedTo)
	return scanTicket(row, t)
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qTicketDelete, id)
	if err != nil {
		return mapErr("delete ticket", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
