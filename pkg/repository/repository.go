package repository

import (
	"context"
)

// Repository is a typed gorm store; every call joins the transaction bound to ctx.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...QueryOption) ([]*T, error)
	// FindOne returns nil without error when nothing matches.
	FindOne(ctx context.Context, query *T, opts ...QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	Count(ctx context.Context, query *T) (int64, error)
}
