package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBExecutor implements ports.DBPort on a pgx pool
type DBExecutor struct {
	pool *pgxpool.Pool
}

// NewDBExecutor creates a new PostgreSQL database executor
func NewDBExecutor(pool *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{pool: pool}
}

// GetDB returns the underlying pool, used for single statements outside a
// transaction
func (db *DBExecutor) GetDB() *pgxpool.Pool {
	return db.pool
}

// WithTransaction runs fn in a read-write transaction. An error from fn
// rolls back; a panic rolls back and is re-raised.
func (db *DBExecutor) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return db.inTx(ctx, pgx.TxOptions{}, "transaction", fn)
}

// WithReadOnlyTransaction runs fn in a repeatable-read, read-only
// transaction so that a count and the page it describes agree.
func (db *DBExecutor) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	opts := pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}
	return db.inTx(ctx, opts, "read-only transaction", fn)
}

func (db *DBExecutor) inTx(ctx context.Context, opts pgx.TxOptions, kind string, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := db.pool.BeginTx(ctx, opts)
	if err != nil {
		return wrapError("begin "+kind, err, nil)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback %s: %v: %w", kind, rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapError("commit "+kind, err, nil)
	}
	return nil
}

// Ping verifies the pool can reach the database
func (db *DBExecutor) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
