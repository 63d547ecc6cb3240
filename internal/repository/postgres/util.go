package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NordCoder/ems/internal/domain"
)

var (
	ErrNotFound = domain.ErrNotFound
	ErrConflict = domain.ErrConflict
)

const (
	codeUniqueViolation  = "23505"
	codeInvalidTextInput = "22P02"
)

// mapErr turns driver errors into domain sentinels. A malformed uuid can
// never match a row, so it reads as not found.
func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return ErrConflict
		case codeInvalidTextInput:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row, *T) error) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
