package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	companyrepo "github.com/smallbiznis/stockledger/internal/company/repository"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	currencyrepo "github.com/smallbiznis/stockledger/internal/currency/repository"
	"github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	productrepo "github.com/smallbiznis/stockledger/internal/product/repository"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	stockrepo "github.com/smallbiznis/stockledger/internal/stock/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, domain.Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&currencydomain.Currency{},
		&companydomain.Company{},
		&productdomain.Unit{},
		&productdomain.Category{},
		&productdomain.Product{},
		&stockdomain.Move{},
		&stockdomain.InvoiceLineMove{},
		&ledgerdomain.Account{},
		&domain.Invoice{},
		&domain.InvoiceLine{},
	))

	require.NoError(t, conn.Create(&currencydomain.Currency{ID: 1, Code: "USD", Name: "US Dollar", Rounding: decimal.RequireFromString("0.01")}).Error)
	require.NoError(t, conn.Create(&companydomain.Company{ID: 1, Name: "Acme", CurrencyID: 1}).Error)
	require.NoError(t, conn.Create(&productdomain.Unit{ID: 10, Name: "Unit", Symbol: "u", Category: "count", Factor: decimal.NewFromInt(1)}).Error)
	require.NoError(t, conn.Create(&productdomain.Product{
		ID: 100, CompanyID: 1, Code: "WIDGET", Name: "Widget", Type: productdomain.ProductTypeGoods,
		DefaultUnitID: 10, CostPrice: decimal.NewFromInt(3),
	}).Error)
	require.NoError(t, conn.Create(&[]ledgerdomain.Account{
		{ID: 9, CompanyID: 1, Code: "2000", Name: "Payable", Kind: ledgerdomain.AccountKindPayable, PartyRequired: true},
		{ID: 60, CompanyID: 1, Code: "6000", Name: "Purchases", Kind: ledgerdomain.AccountKindExpense},
	}).Error)

	currencies := currencyrepo.Provide()
	products := productrepo.Provide()
	companies := companyrepo.Provide(currencies)
	repo := Provide(Params{
		Companies:  companies,
		Currencies: currencies,
		Products:   products,
		Stock:      stockrepo.Provide(stockrepo.Params{Products: products, Currencies: currencies, Companies: companies}),
	})
	return conn, repo
}

func seedInvoice(t *testing.T, conn *gorm.DB) {
	t.Helper()
	require.NoError(t, conn.Create(&domain.Invoice{
		ID: 1, CompanyID: 1, Type: domain.InvoiceTypeInInvoice, PartyID: 5, CurrencyID: 1, AccountID: 9,
		InvoiceDate: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), State: domain.InvoiceStateDraft,
	}).Error)

	productID := snowflake.ID(100)
	unitID := snowflake.ID(10)
	accountID := snowflake.ID(60)
	require.NoError(t, conn.Create(&[]domain.InvoiceLine{
		{ID: 12, InvoiceID: 1, Sequence: 2, Kind: domain.LineKindComment, Description: "Thanks"},
		{ID: 11, InvoiceID: 1, Sequence: 1, Kind: domain.LineKindLine, ProductID: &productID, UnitID: &unitID,
			Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(3), AccountID: &accountID},
	}).Error)

	effective := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&stockdomain.Move{
		ID: 200, CompanyID: 1, ProductID: 100, UnitID: 10, Quantity: decimal.NewFromInt(4),
		State: stockdomain.MoveStateDone, EffectiveDate: &effective, UnitPrice: decimal.NewFromInt(3),
	}).Error)
	require.NoError(t, conn.Create(&stockdomain.InvoiceLineMove{InvoiceLineID: 11, StockMoveID: 200}).Error)
}

func TestLoadForPostingAttachesRelations(t *testing.T) {
	conn, repo := setup(t)
	seedInvoice(t, conn)

	invoice, err := repo.LoadForPosting(context.Background(), conn, 1)
	require.NoError(t, err)

	require.NotNil(t, invoice.Company)
	require.NotNil(t, invoice.Company.Currency)
	assert.Equal(t, "USD", invoice.Currency.Code)
	require.NotNil(t, invoice.Account)
	assert.True(t, invoice.Account.RequiresParty())
	assert.False(t, invoice.IsForeignCurrency())

	require.Len(t, invoice.Lines, 2)
	line := invoice.Lines[0]
	assert.Equal(t, snowflake.ID(11), line.ID)
	assert.Same(t, invoice, line.Invoice)
	require.NotNil(t, line.Product)
	assert.Equal(t, "WIDGET", line.Product.Code)
	require.NotNil(t, line.Unit)
	require.NotNil(t, line.Account)
	assert.Equal(t, "6000", line.Account.Code)
	require.Len(t, line.StockMoves, 1)
	assert.Equal(t, snowflake.ID(200), line.StockMoves[0].ID)

	assert.Equal(t, domain.LineKindComment, invoice.Lines[1].Kind)
	assert.Empty(t, invoice.Lines[1].StockMoves)
	assert.Len(t, invoice.StockMoves(), 1)
}

func TestLoadForPostingNotFound(t *testing.T) {
	conn, repo := setup(t)

	_, err := repo.LoadForPosting(context.Background(), conn, 42)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestMarkPostedOnlyOnce(t *testing.T) {
	conn, repo := setup(t)
	seedInvoice(t, conn)

	invoice, err := repo.LoadForPosting(context.Background(), conn, 1)
	require.NoError(t, err)

	postedAt := time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPosted(context.Background(), conn, invoice, 300, postedAt))
	assert.True(t, invoice.IsPosted())
	require.NotNil(t, invoice.MoveID)
	assert.Equal(t, snowflake.ID(300), *invoice.MoveID)

	err = repo.MarkPosted(context.Background(), conn, invoice, 301, postedAt)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotDraft)
}
