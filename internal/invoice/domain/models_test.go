package domain

import (
	"testing"
	"time"

	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceDates(t *testing.T) {
	invoiceDate := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	accounting := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	currencyDate := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	invoice := &Invoice{ID: 8, InvoiceDate: invoiceDate}
	assert.Equal(t, invoiceDate, invoice.EffectiveAccountingDate())
	assert.Equal(t, invoiceDate, invoice.EffectiveCurrencyDate())
	assert.Equal(t, "invoice:8", invoice.Origin())

	invoice.AccountingDate = &accounting
	assert.Equal(t, accounting, invoice.EffectiveAccountingDate())
	assert.Equal(t, accounting, invoice.EffectiveCurrencyDate())

	invoice.CurrencyDate = &currencyDate
	assert.Equal(t, currencyDate, invoice.EffectiveCurrencyDate())
}

func TestInvoiceTypeSides(t *testing.T) {
	assert.True(t, InvoiceTypeInInvoice.DebitsLines())
	assert.True(t, InvoiceTypeOutCreditNote.DebitsLines())
	assert.False(t, InvoiceTypeOutInvoice.DebitsLines())
	assert.False(t, InvoiceTypeInCreditNote.DebitsLines())

	assert.True(t, InvoiceTypeInCreditNote.IsSupplier())
	assert.False(t, InvoiceTypeOutCreditNote.IsSupplier())
	assert.False(t, InvoiceType("in").Valid())
}

func TestInvoiceStockMovesAreDistinct(t *testing.T) {
	shared := &stockdomain.Move{ID: 1}
	other := &stockdomain.Move{ID: 2}
	invoice := &Invoice{Lines: []*InvoiceLine{
		{ID: 1, StockMoves: []*stockdomain.Move{shared}},
		{ID: 2, StockMoves: []*stockdomain.Move{shared, other, nil}},
	}}

	moves := invoice.StockMoves()
	assert.Equal(t, []*stockdomain.Move{shared, other}, moves)
}

func TestInvoiceLineDisplayName(t *testing.T) {
	assert.Equal(t, "Bolts", (&InvoiceLine{ID: 3, Description: "Bolts"}).DisplayName())
	assert.Equal(t, "invoice_line:3", (&InvoiceLine{ID: 3}).DisplayName())
}
