package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockledger/internal/clock"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	companyrepo "github.com/smallbiznis/stockledger/internal/company/repository"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	currencyrepo "github.com/smallbiznis/stockledger/internal/currency/repository"
	currencyservice "github.com/smallbiznis/stockledger/internal/currency/service"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/stockledger/internal/invoice/repository"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/stockledger/internal/ledger/service"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	periodservice "github.com/smallbiznis/stockledger/internal/period/service"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	productrepo "github.com/smallbiznis/stockledger/internal/product/repository"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	stockrepo "github.com/smallbiznis/stockledger/internal/stock/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testCompanyID    = snowflake.ID(1)
	testPartyID      = snowflake.ID(77)
	testReceivableID = snowflake.ID(9)
	testRevenueID    = snowflake.ID(40)
	testInvoiceID    = snowflake.ID(500)
	testMoveID       = snowflake.ID(700)
)

// consumingTranslator marks every linked stock move as valued so tests can
// tell whether posting persisted the counters.
type consumingTranslator struct {
	base invoicedomain.MoveLineTranslator
}

func (t *consumingTranslator) MoveLines(ctx context.Context, line *invoicedomain.InvoiceLine) ([]ledgerdomain.MoveLine, error) {
	for _, move := range line.StockMoves {
		move.OutAngloSaxonQuantity = move.Quantity
	}
	return t.base.MoveLines(ctx, line)
}

type fixture struct {
	db  *gorm.DB
	svc invoicedomain.Service
}

func setupPosting(t *testing.T) fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&currencydomain.Currency{},
		&currencydomain.Rate{},
		&companydomain.Company{},
		&productdomain.Unit{},
		&productdomain.Category{},
		&productdomain.Product{},
		&stockdomain.Move{},
		&stockdomain.InvoiceLineMove{},
		&ledgerdomain.Account{},
		&ledgerdomain.Move{},
		&ledgerdomain.MoveLine{},
		&perioddomain.FiscalYear{},
		&perioddomain.Period{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
	))

	require.NoError(t, conn.Create(&currencydomain.Currency{ID: 1, Code: "USD", Name: "US Dollar", Rounding: decimal.RequireFromString("0.01")}).Error)
	require.NoError(t, conn.Create(&companydomain.Company{ID: testCompanyID, Name: "Acme", CurrencyID: 1}).Error)
	require.NoError(t, conn.Create(&productdomain.Unit{ID: 10, Name: "Unit", Symbol: "u", Category: "count", Factor: decimal.NewFromInt(1)}).Error)
	require.NoError(t, conn.Create(&productdomain.Product{
		ID: 100, CompanyID: testCompanyID, Code: "WIDGET", Name: "Widget", Type: productdomain.ProductTypeGoods,
		DefaultUnitID: 10, CostPrice: decimal.NewFromInt(4),
	}).Error)
	require.NoError(t, conn.Create(&[]ledgerdomain.Account{
		{ID: testReceivableID, CompanyID: testCompanyID, Code: "1200", Name: "Receivable", Kind: ledgerdomain.AccountKindReceivable, PartyRequired: true},
		{ID: testRevenueID, CompanyID: testCompanyID, Code: "4000", Name: "Revenue", Kind: ledgerdomain.AccountKindRevenue},
	}).Error)
	require.NoError(t, conn.Create(&perioddomain.FiscalYear{
		ID: 1, CompanyID: testCompanyID, Name: "2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		AccountStockMethod: perioddomain.StockMethodContinental,
	}).Error)
	require.NoError(t, conn.Create(&perioddomain.Period{
		ID: 11, CompanyID: testCompanyID, FiscalYearID: 1, Name: "2024-03", Type: perioddomain.PeriodTypeStandard,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}).Error)

	effective := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&stockdomain.Move{
		ID: testMoveID, CompanyID: testCompanyID, ProductID: 100, UnitID: 10, Quantity: decimal.NewFromInt(2),
		State: stockdomain.MoveStateDone, EffectiveDate: &effective, CostPrice: decimal.NewFromInt(4),
	}).Error)

	require.NoError(t, conn.Create(&invoicedomain.Invoice{
		ID: testInvoiceID, CompanyID: testCompanyID, Number: "INV-0001", Type: invoicedomain.InvoiceTypeOutInvoice,
		PartyID: testPartyID, CurrencyID: 1, AccountID: testReceivableID,
		InvoiceDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), State: invoicedomain.InvoiceStateDraft,
	}).Error)
	productID := snowflake.ID(100)
	unitID := snowflake.ID(10)
	revenue := testRevenueID
	require.NoError(t, conn.Create(&[]invoicedomain.InvoiceLine{
		{ID: 501, InvoiceID: testInvoiceID, Sequence: 1, Kind: invoicedomain.LineKindTitle, Description: "Hardware"},
		{ID: 502, InvoiceID: testInvoiceID, Sequence: 2, Kind: invoicedomain.LineKindLine, ProductID: &productID, UnitID: &unitID,
			Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Description: "Widget", AccountID: &revenue},
		{ID: 503, InvoiceID: testInvoiceID, Sequence: 3, Kind: invoicedomain.LineKindLine,
			Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("5.50"), Description: "Setup", AccountID: &revenue},
	}).Error)
	require.NoError(t, conn.Create(&stockdomain.InvoiceLineMove{InvoiceLineID: 502, StockMoveID: testMoveID}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	metrics := obsmetrics.New(obsmetrics.Config{}, prometheus.NewRegistry())

	currencies := currencyrepo.Provide()
	products := productrepo.Provide()
	companies := companyrepo.Provide(currencies)
	stock := stockrepo.Provide(stockrepo.Params{Products: products, Currencies: currencies, Companies: companies})
	converter := currencyservice.New(currencyservice.Params{DB: conn, Log: log, Clock: clk, Repo: currencies})

	svc := NewService(ServiceParam{
		DB:    conn,
		Log:   log,
		Clock: clk,
		Repo: invoicerepo.Provide(invoicerepo.Params{
			Companies: companies, Currencies: currencies, Products: products, Stock: stock,
		}),
		Translator: &consumingTranslator{base: NewBaseTranslator(TranslatorParams{Converter: converter})},
		Ledger:     ledgerservice.NewService(ledgerservice.Params{DB: conn, Log: log, GenID: node, ObsMetrics: metrics}),
		Periods:    periodservice.NewService(periodservice.ServiceParam{DB: conn, Log: log}),
		Stock:      stock,
		ObsMetrics: metrics,
	})
	return fixture{db: conn, svc: svc}
}

func TestPostInvoiceCreatesBalancedMove(t *testing.T) {
	f := setupPosting(t)

	result, err := f.svc.PostInvoice(context.Background(), testInvoiceID)
	require.NoError(t, err)
	require.NotNil(t, result.Move)
	assert.False(t, result.AlreadyPosted)

	move := result.Move
	assert.Equal(t, "invoice:500", move.Origin)
	assert.Equal(t, snowflake.ID(11), move.PeriodID)
	assert.Equal(t, "500", move.Metadata["invoice_id"])
	require.Len(t, move.Lines, 3)
	require.NoError(t, ledgerdomain.ValidateBalanced(move.Lines))

	assert.True(t, move.Lines[0].Credit.Equal(decimal.NewFromInt(20)))
	assert.True(t, move.Lines[1].Credit.Equal(decimal.RequireFromString("5.50")))
	counterpart := move.Lines[2]
	assert.Equal(t, testReceivableID, counterpart.AccountID)
	assert.True(t, counterpart.Debit.Equal(decimal.RequireFromString("25.50")))
	require.NotNil(t, counterpart.PartyID)
	assert.Equal(t, testPartyID, *counterpart.PartyID)

	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", testInvoiceID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatePosted, stored.State)
	require.NotNil(t, stored.MoveID)
	assert.Equal(t, move.ID, *stored.MoveID)
	require.NotNil(t, stored.PostedAt)

	var stockMove stockdomain.Move
	require.NoError(t, f.db.First(&stockMove, "id = ?", testMoveID).Error)
	assert.True(t, stockMove.OutAngloSaxonQuantity.Equal(decimal.NewFromInt(2)))
}

func TestPostInvoiceTwiceReturnsExistingMove(t *testing.T) {
	f := setupPosting(t)

	first, err := f.svc.PostInvoice(context.Background(), testInvoiceID)
	require.NoError(t, err)

	second, err := f.svc.PostInvoice(context.Background(), testInvoiceID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyPosted)
	assert.Equal(t, first.Move.ID, second.Move.ID)
	assert.Len(t, second.Move.Lines, 3)

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Move{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostInvoiceRollsBackWithoutPeriod(t *testing.T) {
	f := setupPosting(t)
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", testInvoiceID).
		Update("invoice_date", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).Error)

	_, err := f.svc.PostInvoice(context.Background(), testInvoiceID)
	require.ErrorIs(t, err, perioddomain.ErrPeriodNotFound)

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Move{}).Count(&count).Error)
	assert.Zero(t, count)

	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", testInvoiceID).Error)
	assert.Equal(t, invoicedomain.InvoiceStateDraft, stored.State)
	assert.Nil(t, stored.MoveID)
}

func TestPreviewMoveLinesDoesNotPersist(t *testing.T) {
	f := setupPosting(t)

	result, err := f.svc.PreviewMoveLines(context.Background(), testInvoiceID)
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)
	require.NoError(t, ledgerdomain.ValidateBalanced(result.Lines))

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Move{}).Count(&count).Error)
	assert.Zero(t, count)

	var stockMove stockdomain.Move
	require.NoError(t, f.db.First(&stockMove, "id = ?", testMoveID).Error)
	assert.True(t, stockMove.OutAngloSaxonQuantity.IsZero())

	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", testInvoiceID).Error)
	assert.Equal(t, invoicedomain.InvoiceStateDraft, stored.State)
}

func TestPreviewPostedInvoiceReturnsStoredLines(t *testing.T) {
	f := setupPosting(t)

	posted, err := f.svc.PostInvoice(context.Background(), testInvoiceID)
	require.NoError(t, err)

	preview, err := f.svc.PreviewMoveLines(context.Background(), testInvoiceID)
	require.NoError(t, err)
	require.Len(t, preview.Lines, len(posted.Move.Lines))
	for i := range preview.Lines {
		assert.Equal(t, posted.Move.Lines[i].ID, preview.Lines[i].ID)
	}
}

func TestPostInvoiceErrors(t *testing.T) {
	f := setupPosting(t)

	_, err := f.svc.PostInvoice(context.Background(), 0)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidInvoiceID)

	_, err = f.svc.PostInvoice(context.Background(), 999)
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	require.NoError(t, f.db.Where("invoice_id = ? AND kind = ?", testInvoiceID, invoicedomain.LineKindLine).
		Delete(&invoicedomain.InvoiceLine{}).Error)
	_, err = f.svc.PostInvoice(context.Background(), testInvoiceID)
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyInvoice)
}
