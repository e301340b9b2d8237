package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	"gorm.io/gorm"
)

// Company owns invoices, periods and stock moves; amounts post in its currency.
type Company struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Name       string       `gorm:"type:text;not null"`
	CurrencyID snowflake.ID `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Currency *currencydomain.Currency `gorm:"-"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

type Repository interface {
	// FindByIDs returns companies keyed by ID with their currency attached.
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*Company, error)
}

var ErrNotFound = errors.New("company_not_found")
