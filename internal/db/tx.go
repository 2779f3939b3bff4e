package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is what cookie queries run against: the pool for lookups, a
// transaction for a batch of Set-Cookie writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// TxRunner hands out the two paths a cookie store needs. Reader serves
// lookups; WithinTx applies one response's cookies all or nothing.
type TxRunner interface {
	Reader() DBTX
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteTxRunner implements TxRunner over an opened database.
type SQLiteTxRunner struct {
	db *sql.DB
}

var _ TxRunner = (*SQLiteTxRunner)(nil)

func NewSQLiteTxRunner(db *sql.DB) *SQLiteTxRunner {
	return &SQLiteTxRunner{db: db}
}

func (r *SQLiteTxRunner) Reader() DBTX { return r.db }

// WithinTx commits when fn returns nil and rolls back otherwise. A panic in
// fn rolls back and is re-raised.
func (r *SQLiteTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cookie transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cookie transaction: %w", err)
	}
	return nil
}
