package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByIDs returns products keyed by ID with default unit and category attached.
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*Product, error)
	FindUnits(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*Unit, error)
}

var (
	ErrNotFound             = errors.New("product_not_found")
	ErrMissingAccount       = errors.New("missing_account")
	ErrInvalidAccountKind   = errors.New("invalid_account_kind")
	ErrInvalidUnit          = errors.New("invalid_unit")
	ErrUnitCategoryMismatch = errors.New("unit_category_mismatch")
)
