// Package domain contains persistence models for invoicing.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
)

// InvoiceType distinguishes the side (customer or supplier) and the kind of document.
type InvoiceType string

const (
	InvoiceTypeOutInvoice    InvoiceType = "out_invoice"
	InvoiceTypeInInvoice     InvoiceType = "in_invoice"
	InvoiceTypeOutCreditNote InvoiceType = "out_credit_note"
	InvoiceTypeInCreditNote  InvoiceType = "in_credit_note"
)

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeOutInvoice, InvoiceTypeInInvoice, InvoiceTypeOutCreditNote, InvoiceTypeInCreditNote:
		return true
	default:
		return false
	}
}

// IsSupplier reports whether the document was issued by a supplier.
func (t InvoiceType) IsSupplier() bool {
	return t == InvoiceTypeInInvoice || t == InvoiceTypeInCreditNote
}

func (t InvoiceType) IsCreditNote() bool {
	return t == InvoiceTypeOutCreditNote || t == InvoiceTypeInCreditNote
}

// DebitsLines reports whether positive line amounts post on the debit side.
func (t InvoiceType) DebitsLines() bool {
	return t == InvoiceTypeInInvoice || t == InvoiceTypeOutCreditNote
}

// InvoiceState represents invoice lifecycle states.
type InvoiceState string

const (
	InvoiceStateDraft  InvoiceState = "draft"
	InvoiceStatePosted InvoiceState = "posted"
)

// Invoice is a customer or supplier document posted to the ledger.
type Invoice struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	CompanyID   snowflake.ID `gorm:"not null;index"`
	Number      string       `gorm:"type:text;not null;default:''"`
	Type        InvoiceType  `gorm:"type:text;not null"`
	PartyID     snowflake.ID `gorm:"not null;index"`
	CurrencyID  snowflake.ID `gorm:"not null"`
	AccountID   snowflake.ID `gorm:"not null"`
	InvoiceDate time.Time    `gorm:"not null"`
	// AccountingDate overrides InvoiceDate for period and cost resolution.
	AccountingDate *time.Time
	// CurrencyDate overrides the date used for currency conversion.
	CurrencyDate *time.Time
	Description  string        `gorm:"type:text;not null;default:''"`
	State        InvoiceState  `gorm:"type:text;not null;default:'draft'"`
	MoveID       *snowflake.ID `gorm:"index"`
	PostedAt     *time.Time
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Company  *companydomain.Company   `gorm:"-"`
	Currency *currencydomain.Currency `gorm:"-"`
	Account  *ledgerdomain.Account    `gorm:"-"`
	Lines    []*InvoiceLine           `gorm:"-"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// EffectiveAccountingDate is AccountingDate when set, else InvoiceDate.
func (i *Invoice) EffectiveAccountingDate() time.Time {
	if i.AccountingDate != nil {
		return *i.AccountingDate
	}
	return i.InvoiceDate
}

// EffectiveCurrencyDate is CurrencyDate when set, else the accounting date.
func (i *Invoice) EffectiveCurrencyDate() time.Time {
	if i.CurrencyDate != nil {
		return *i.CurrencyDate
	}
	return i.EffectiveAccountingDate()
}

// Origin identifies the ledger move posted for the invoice.
func (i *Invoice) Origin() string {
	return fmt.Sprintf("invoice:%d", i.ID)
}

func (i *Invoice) IsPosted() bool {
	return i.State == InvoiceStatePosted
}

// IsForeignCurrency reports whether the invoice currency differs from the company currency.
func (i *Invoice) IsForeignCurrency() bool {
	if i.Company == nil || i.Company.Currency == nil || i.Currency == nil {
		return false
	}
	return i.Company.Currency.ID != i.Currency.ID
}

// StockMoves returns the distinct stock moves linked to any line, in line order.
func (i *Invoice) StockMoves() []*stockdomain.Move {
	seen := make(map[snowflake.ID]struct{})
	var moves []*stockdomain.Move
	for _, line := range i.Lines {
		for _, move := range line.StockMoves {
			if move == nil {
				continue
			}
			if _, ok := seen[move.ID]; ok {
				continue
			}
			seen[move.ID] = struct{}{}
			moves = append(moves, move)
		}
	}
	return moves
}

type LineKind string

const (
	LineKindLine     LineKind = "line"
	LineKindSubtotal LineKind = "subtotal"
	LineKindTitle    LineKind = "title"
	LineKindComment  LineKind = "comment"
)

// InvoiceLine is one row of an invoice. Only LineKindLine rows carry amounts.
type InvoiceLine struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	InvoiceID snowflake.ID  `gorm:"not null;index"`
	Sequence  int           `gorm:"not null;default:0"`
	Kind      LineKind      `gorm:"type:text;not null;default:'line'"`
	ProductID *snowflake.ID `gorm:"index"`
	// Quantity is signed; a negative quantity records a return.
	Quantity    decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	UnitID      *snowflake.ID
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	Description string          `gorm:"type:text;not null;default:''"`
	AccountID   *snowflake.ID
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Invoice    *Invoice               `gorm:"-"`
	Product    *productdomain.Product `gorm:"-"`
	Unit       *productdomain.Unit    `gorm:"-"`
	Account    *ledgerdomain.Account  `gorm:"-"`
	StockMoves []*stockdomain.Move    `gorm:"-"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }

// Ref identifies the line in warning keys and log fields.
func (l *InvoiceLine) Ref() string {
	return fmt.Sprintf("invoice_line:%d", l.ID)
}

// DisplayName is the line as shown to users.
func (l *InvoiceLine) DisplayName() string {
	if l.Description != "" {
		return l.Description
	}
	if l.Product != nil && l.Product.Name != "" {
		return l.Product.Name
	}
	return l.Ref()
}
