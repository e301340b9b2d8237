package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	"gorm.io/gorm"
)

type MoveState string

const (
	MoveStateDraft    MoveState = "draft"
	MoveStateAssigned MoveState = "assigned"
	MoveStateDone     MoveState = "done"
	MoveStateCancel   MoveState = "cancel"
)

// Move is a recorded physical stock movement.
type Move struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	CompanyID     snowflake.ID    `gorm:"not null;index"`
	ProductID     snowflake.ID    `gorm:"not null;index"`
	UnitID        snowflake.ID    `gorm:"not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	State         MoveState       `gorm:"type:text;not null;index"`
	EffectiveDate *time.Time
	// UnitPrice is the purchase or sale price per move unit in CurrencyID.
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	CurrencyID *snowflake.ID
	// CostPrice is the valuation cost per product default unit in company currency.
	CostPrice             decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	InAngloSaxonQuantity  decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	OutAngloSaxonQuantity decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	CreatedAt             time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Product  *productdomain.Product   `gorm:"-"`
	Unit     *productdomain.Unit      `gorm:"-"`
	Currency *currencydomain.Currency `gorm:"-"`
	Company  *companydomain.Company   `gorm:"-"`
}

// TableName sets the database table name.
func (Move) TableName() string { return "stock_moves" }

func (m *Move) IsDone() bool {
	return m != nil && m.State == MoveStateDone
}

// AngloSaxonQuantity returns the quantity already valued for postings in t's direction.
func (m *Move) AngloSaxonQuantity(t MoveType) decimal.Decimal {
	if t.IsInbound() {
		return m.InAngloSaxonQuantity
	}
	return m.OutAngloSaxonQuantity
}

func (m *Move) SetAngloSaxonQuantity(t MoveType, qty decimal.Decimal) {
	if t.IsInbound() {
		m.InAngloSaxonQuantity = qty
		return
	}
	m.OutAngloSaxonQuantity = qty
}

// EffectiveDateOrZero is the sort key for cost layer consumption.
func (m *Move) EffectiveDateOrZero() time.Time {
	if m == nil || m.EffectiveDate == nil {
		return time.Time{}
	}
	return *m.EffectiveDate
}

// CostAggregator values quantity of product against the given moves in order,
// consuming their anglo-saxon quantities. An empty moves slice values the
// whole quantity at the product's current cost price.
type CostAggregator interface {
	AngloSaxonCost(ctx context.Context, product *productdomain.Product, moves []*Move, quantity decimal.Decimal, unit *productdomain.Unit, moveType MoveType) (decimal.Decimal, error)
}

type Repository interface {
	// FindByInvoiceLines returns the linked moves per invoice line, fully loaded.
	FindByInvoiceLines(ctx context.Context, db *gorm.DB, lineIDs []snowflake.ID) (map[snowflake.ID][]*Move, error)
	SaveAngloSaxonQuantities(ctx context.Context, db *gorm.DB, moves []*Move) error
}

var (
	ErrInvalidMoveType = errors.New("invalid_move_type")
	ErrProductMismatch = errors.New("stock_move_product_mismatch")
)

// InvoiceLineMove links an invoice line to the stock moves it invoiced.
type InvoiceLineMove struct {
	InvoiceLineID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	StockMoveID   snowflake.ID `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName sets the database table name.
func (InvoiceLineMove) TableName() string { return "invoice_line_stock_moves" }
