package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/ticket"
)

var ticketCols = []string{"id", "title", "description", "status", "priority", "created_by", "assigned_to", "created_at", "updated_at"}

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewWithPool(mock, time.Second)
}

func TestTicketRepo_List_ScopedToOwner(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)
	now := time.Now()

	mock.ExpectQuery(`(?is)SELECT COUNT\(\*\)\s+FROM tickets`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`(?is)SELECT id, .* FROM tickets\s+WHERE \(\$1::text = '' OR created_by = \$1\).*LIMIT \$2 OFFSET \$3`).
		WithArgs("u-1", 10, 10).
		WillReturnRows(pgxmock.NewRows(ticketCols).
			AddRow("t-2", "VPN", "", "open", "high", "u-1", "", now, now))

	items, total, err := repo.List(context.Background(), ticket.Filter{OwnerID: "u-1"}, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, ticket.PriorityHigh, items[0].Priority)
	assert.Equal(t, "u-1", items[0].CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_List_Unscoped(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)

	mock.ExpectQuery(`(?is)SELECT COUNT`).
		WithArgs("").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?is)SELECT id, .* FROM tickets`).
		WithArgs("", 10, 0).
		WillReturnRows(pgxmock.NewRows(ticketCols))

	items, total, err := repo.List(context.Background(), ticket.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_GetByID_NotFound(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)

	mock.ExpectQuery(`(?is)SELECT id, .* FROM tickets\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_GetByID_MalformedID(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)

	mock.ExpectQuery(`(?is)FROM tickets\s+WHERE id = \$1`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTicketRepo_Create_AssignsID(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)
	now := time.Now()

	mock.ExpectQuery(`(?is)INSERT INTO tickets`).
		WithArgs(pgxmock.AnyArg(), "Laptop", "screen", "open", "medium", "u-1", "e-9").
		WillReturnRows(pgxmock.NewRows(ticketCols).
			AddRow("t-new", "Laptop", "screen", "open", "medium", "u-1", "e-9", now, now))

	tk := &ticket.Ticket{Title: "Laptop", Description: "screen", Status: ticket.StatusOpen,
		Priority: ticket.PriorityMedium, CreatedBy: "u-1", AssignedTo: "e-9"}
	require.NoError(t, repo.Create(context.Background(), tk))
	assert.Equal(t, "t-new", tk.ID)
	assert.Equal(t, now, tk.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_Delete(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewTicketRepo(db)

	mock.ExpectExec(`DELETE FROM tickets`).WithArgs("t-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM tickets`).WithArgs("t-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM tickets`).WithArgs("t-3").
		WillReturnError(errors.New("conn reset"))

	assert.NoError(t, repo.Delete(context.Background(), "t-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "t-2"), domain.ErrNotFound)
	err := repo.Delete(context.Background(), "t-3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
