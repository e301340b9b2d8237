package domain

import (
	"strings"

	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
)

// MoveType tags a stock valuation posting with its direction (in/out) and
// its counterparty (supplier/customer), e.g. "in_supplier".
type MoveType string

const (
	MoveTypeInSupplier  MoveType = "in_supplier"
	MoveTypeOutSupplier MoveType = "out_supplier"
	MoveTypeInCustomer  MoveType = "in_customer"
	MoveTypeOutCustomer MoveType = "out_customer"
)

const (
	inPrefix  = "in_"
	outPrefix = "out_"
)

func (t MoveType) IsInbound() bool {
	return strings.HasPrefix(string(t), inPrefix)
}

func (t MoveType) IsOutbound() bool {
	return strings.HasPrefix(string(t), outPrefix)
}

// Counterparty returns the part after the direction marker.
func (t MoveType) Counterparty() string {
	switch {
	case t.IsInbound():
		return string(t)[len(inPrefix):]
	case t.IsOutbound():
		return string(t)[len(outPrefix):]
	default:
		return ""
	}
}

func (t MoveType) IsSupplier() bool {
	return t.Counterparty() == string(productdomain.StockAccountSupplier)
}

// Valid reports whether t carries a direction marker and a known counterparty.
func (t MoveType) Valid() bool {
	switch t {
	case MoveTypeInSupplier, MoveTypeOutSupplier, MoveTypeInCustomer, MoveTypeOutCustomer:
		return true
	default:
		return false
	}
}

// Inverted flips the direction and keeps the counterparty.
func (t MoveType) Inverted() MoveType {
	switch {
	case t.IsInbound():
		return MoveType(outPrefix + t.Counterparty())
	case t.IsOutbound():
		return MoveType(inPrefix + t.Counterparty())
	default:
		return t
	}
}

// StockAccountKind maps the counterparty onto the product stock account it posts to.
func (t MoveType) StockAccountKind() productdomain.StockAccountKind {
	return productdomain.StockAccountKind(t.Counterparty())
}
