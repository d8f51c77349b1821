package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/cleaning-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return r.withTx(ctx, nil, fn)
}

// WithReadOnlyTx runs fn in a read-only transaction so every read sees the
// same committed state.
func (r *BaseRepository) WithReadOnlyTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return r.withTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (r *BaseRepository) withTx(ctx context.Context, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres error codes the repositories translate.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// mapError translates driver errors into repository sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", repository.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pqErr.Message)
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Message)
		}
	}
	return err
}

// expectOneRow turns a zero-row update into ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
