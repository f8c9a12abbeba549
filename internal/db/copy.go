// Package db provides shared helpers for bulk-loading gold tables into
// PostgreSQL.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the publishers use.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// ReplaceTable truncates a table and COPYs the new rows inside one
// transaction, so readers only ever see a complete snapshot.
func ReplaceTable(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "db: begin replace %s", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return eris.Wrapf(err, "db: truncate %s", table)
	}

	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return eris.Wrapf(err, "db: COPY INTO %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "db: commit replace %s", table)
}
