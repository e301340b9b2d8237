package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Unit is a unit of measure; one unit equals Factor units of its category base.
type Unit struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	Name      string          `gorm:"type:text;not null"`
	Symbol    string          `gorm:"type:text;not null"`
	Category  string          `gorm:"type:text;not null"`
	Factor    decimal.Decimal `gorm:"type:decimal(20,10);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Unit) TableName() string { return "units" }

// ComputeQuantity converts qty expressed in from into to.
// A nil unit on either side means the quantity is already expressed in the other.
func ComputeQuantity(from *Unit, qty decimal.Decimal, to *Unit) (decimal.Decimal, error) {
	if err := compatible(from, to); err != nil {
		return decimal.Zero, err
	}
	if from == nil || to == nil || from.ID == to.ID {
		return qty, nil
	}
	return qty.Mul(from.Factor).Div(to.Factor), nil
}

// ComputePrice converts a price per from unit into a price per to unit.
func ComputePrice(from *Unit, price decimal.Decimal, to *Unit) (decimal.Decimal, error) {
	if err := compatible(from, to); err != nil {
		return decimal.Zero, err
	}
	if from == nil || to == nil || from.ID == to.ID {
		return price, nil
	}
	return price.Mul(to.Factor).Div(from.Factor), nil
}

func compatible(from, to *Unit) error {
	if from == nil || to == nil {
		return nil
	}
	if !from.Factor.IsPositive() || !to.Factor.IsPositive() {
		return fmt.Errorf("%w: %s or %s", ErrInvalidUnit, from.Symbol, to.Symbol)
	}
	if from.Category != to.Category {
		return fmt.Errorf("%w: %s (%s) to %s (%s)", ErrUnitCategoryMismatch, from.Symbol, from.Category, to.Symbol, to.Category)
	}
	return nil
}
