package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

// MapPostgresError translates pgx errors into the model's sentinel errors.
// Unique violations are mapped per constraint so registration can report
// which identity field collided.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch {
			case strings.Contains(pgErr.ConstraintName, "username"):
				return models.ErrDuplicateUsername
			case strings.Contains(pgErr.ConstraintName, "email"):
				return models.ErrDuplicateEmail
			default:
				return models.ErrConflict
			}
		case "23503": // foreign_key_violation
			return models.ErrBadRequest
		case "23502": // not_null_violation
			return models.ErrBadRequest
		}
	}

	return err
}

// WithTransaction runs fn inside a transaction. Rollback is guaranteed on
// every exit path, including panics; commit happens only on a nil error, and
// a commit failure is the caller's error: success means the work is durable.
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	return runInTx(ctx, tx, fn)
}

// runInTx owns the commit/rollback decision for an already-begun transaction.
// The named return lets the deferred commit surface its error to the caller.
func runInTx(ctx context.Context, tx pgx.Tx, fn func(pgx.Tx) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	return fn(tx)
}
