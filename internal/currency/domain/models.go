package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Currency defines a money unit and the smallest amount it can express.
type Currency struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	Code      string          `gorm:"type:text;not null;uniqueIndex"`
	Name      string          `gorm:"type:text;not null"`
	Rounding  decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Currency) TableName() string { return "currencies" }

// Round rounds amount to the currency rounding using banker's rounding.
func (c *Currency) Round(amount decimal.Decimal) decimal.Decimal {
	if c == nil || !c.Rounding.IsPositive() {
		return amount
	}
	return amount.Div(c.Rounding).RoundBank(0).Mul(c.Rounding)
}

// IsZero reports whether amount rounds to zero in this currency.
func (c *Currency) IsZero(amount decimal.Decimal) bool {
	return c.Round(amount).IsZero()
}

// Rate is the value of one unit of the base currency expressed in CurrencyID,
// effective from Date until the next rate.
type Rate struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	CurrencyID snowflake.ID    `gorm:"not null;uniqueIndex:ux_currency_rates_date,priority:1"`
	Date       time.Time       `gorm:"not null;uniqueIndex:ux_currency_rates_date,priority:2"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Rate) TableName() string { return "currency_rates" }

type Repository interface {
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*Currency, error)
	// FindRate returns the latest rate on or before date.
	FindRate(ctx context.Context, db *gorm.DB, currencyID snowflake.ID, date time.Time) (*Rate, error)
}

// Converter converts amounts between currencies at the date scoped on ctx.
type Converter interface {
	Compute(ctx context.Context, from *Currency, amount decimal.Decimal, to *Currency, round bool) (decimal.Decimal, error)
}

var (
	ErrNotFound        = errors.New("currency_not_found")
	ErrRateNotFound    = errors.New("currency_rate_not_found")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
