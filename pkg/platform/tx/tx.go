// Package tx carries a SQL transaction through the context so a store can
// join a unit of work started by its caller. The profile store's InsertMany
// uses it to write a seed batch atomically.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx returns ctx carrying tx. Store queries made with the returned
// context run inside tx. A nil tx leaves ctx unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From returns the transaction carried by ctx, if any. Stores fall back to
// their pool when it reports false.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
