package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeGoods   ProductType = "goods"
	ProductTypeAssets  ProductType = "assets"
	ProductTypeService ProductType = "service"
)

// StockAccountKind selects which stock account of a product a posting uses.
type StockAccountKind string

const (
	StockAccountSupplier StockAccountKind = "supplier"
	StockAccountCustomer StockAccountKind = "customer"
)

// Category groups products and supplies the accounts a product leaves empty.
type Category struct {
	ID                     snowflake.ID  `gorm:"primaryKey"`
	CompanyID              snowflake.ID  `gorm:"not null;index"`
	Name                   string        `gorm:"type:text;not null"`
	AccountStockSupplierID *snowflake.ID `gorm:"column:account_stock_supplier_id"`
	AccountStockCustomerID *snowflake.ID `gorm:"column:account_stock_customer_id"`
	AccountCOGSID          *snowflake.ID `gorm:"column:account_cogs_id"`
	CreatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "product_categories" }

type Product struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	CompanyID     snowflake.ID  `gorm:"not null;index:ux_products_company_code,priority:1"`
	Code          string        `gorm:"type:text;not null;index:ux_products_company_code,priority:2"`
	Name          string        `gorm:"type:text;not null"`
	Type          ProductType   `gorm:"type:text;not null"`
	DefaultUnitID snowflake.ID  `gorm:"not null"`
	CategoryID    *snowflake.ID `gorm:"index"`
	// CostPrice is the current cost per default unit in company currency.
	CostPrice              decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	AccountStockSupplierID *snowflake.ID   `gorm:"column:account_stock_supplier_id"`
	AccountStockCustomerID *snowflake.ID   `gorm:"column:account_stock_customer_id"`
	AccountCOGSID          *snowflake.ID   `gorm:"column:account_cogs_id"`
	CreatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`

	DefaultUnit *Unit     `gorm:"-"`
	Category    *Category `gorm:"-"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// IsGoods reports whether the product is stock-tracked merchandise.
func (p *Product) IsGoods() bool {
	return p != nil && p.Type == ProductTypeGoods
}

// StockAccountID returns the stock account used for kind, falling back to the category.
func (p *Product) StockAccountID(kind StockAccountKind) (snowflake.ID, error) {
	var own, fromCategory *snowflake.ID
	switch kind {
	case StockAccountSupplier:
		own = p.AccountStockSupplierID
		if p.Category != nil {
			fromCategory = p.Category.AccountStockSupplierID
		}
	case StockAccountCustomer:
		own = p.AccountStockCustomerID
		if p.Category != nil {
			fromCategory = p.Category.AccountStockCustomerID
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAccountKind, kind)
	}
	return p.used(own, fromCategory, "stock "+string(kind))
}

// COGSAccountID returns the cost of goods sold account, falling back to the category.
func (p *Product) COGSAccountID() (snowflake.ID, error) {
	var fromCategory *snowflake.ID
	if p.Category != nil {
		fromCategory = p.Category.AccountCOGSID
	}
	return p.used(p.AccountCOGSID, fromCategory, "cogs")
}

func (p *Product) used(own, fromCategory *snowflake.ID, label string) (snowflake.ID, error) {
	if own != nil && *own != 0 {
		return *own, nil
	}
	if fromCategory != nil && *fromCategory != 0 {
		return *fromCategory, nil
	}
	return 0, fmt.Errorf("%w: product %s has no %s account", ErrMissingAccount, p.Code, label)
}
