package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

// WithTx binds tx to ctx so every repository called with ctx joins the same transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction bound to ctx, or fallback when none is bound.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if ctx != nil {
		if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
			return tx.WithContext(ctx)
		}
	}
	if fallback == nil {
		return nil
	}
	return fallback.WithContext(ctx)
}

// Transaction runs fn inside the transaction bound to ctx, or opens one on
// fallback and binds it for the duration of fn.
func Transaction(ctx context.Context, fallback *gorm.DB, fn func(ctx context.Context) error) error {
	if ctx != nil {
		if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
			return fn(ctx)
		}
	}
	return fallback.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// ForUpdate adds a row lock to conn's next query. SQLite locks the whole
// database per write transaction and does not accept the clause.
func ForUpdate(conn *gorm.DB) *gorm.DB {
	if conn.Dialector != nil && conn.Dialector.Name() == "sqlite" {
		return conn
	}
	return conn.Clauses(clause.Locking{Strength: "UPDATE"})
}
