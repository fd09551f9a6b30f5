// Package tx carries an open database transaction through a context so that
// repository methods can join it without taking a *sql.Tx parameter.
package tx

import (
	"context"
	"database/sql"
)

// Executor is the query surface shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type boundTx struct{}

// Bind returns ctx carrying tx. A nil tx leaves ctx untouched.
func Bind(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, boundTx{}, tx)
}

// Active reports the transaction bound to ctx, if any.
func Active(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(boundTx{}).(*sql.Tx)
	return tx, ok
}

// Pick returns the bound transaction, or fallback when ctx has none.
func Pick(ctx context.Context, fallback Executor) Executor {
	if tx, ok := Active(ctx); ok {
		return tx
	}
	return fallback
}
