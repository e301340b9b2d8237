// Package anglosaxon extends invoice posting with the cost of goods sold
// entries required when a fiscal year uses anglo-saxon stock accounting.
package anglosaxon

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	warningdomain "github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/smallbiznis/stockledger/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// WarningDifferentProduct is raised when an invoice line links stock moves of another product.
const WarningDifferentProduct = "stock_move_different_product"

type Params struct {
	fx.In

	Log        *zap.Logger
	Periods    perioddomain.Resolver
	Costs      stockdomain.CostAggregator
	Ledger     ledgerdomain.Service
	Warner     warningdomain.Warner
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Translator wraps a base translator and appends the stock/COGS pair of
// goods lines posted in anglo-saxon periods.
type Translator struct {
	base       invoicedomain.MoveLineTranslator
	log        *zap.Logger
	periods    perioddomain.Resolver
	costs      stockdomain.CostAggregator
	ledger     ledgerdomain.Service
	warner     warningdomain.Warner
	obsMetrics *obsmetrics.Metrics
}

func New(base invoicedomain.MoveLineTranslator, p Params) *Translator {
	return &Translator{
		base:       base,
		log:        p.Log.Named("anglosaxon.service"),
		periods:    p.Periods,
		costs:      p.Costs,
		ledger:     p.Ledger,
		warner:     p.Warner,
		obsMetrics: p.ObsMetrics,
	}
}

// Decorate replaces the provided translator with one that adds COGS entries.
func Decorate(base invoicedomain.MoveLineTranslator, p Params) invoicedomain.MoveLineTranslator {
	return New(base, p)
}

func (t *Translator) MoveLines(ctx context.Context, line *invoicedomain.InvoiceLine) ([]ledgerdomain.MoveLine, error) {
	result, err := t.base.MoveLines(ctx, line)
	if err != nil {
		return nil, err
	}

	if line == nil || line.Kind != invoicedomain.LineKindLine {
		return result, nil
	}
	if line.Product == nil || !line.Product.IsGoods() {
		return result, nil
	}

	invoice := line.Invoice
	if invoice == nil {
		return nil, fmt.Errorf("%w: %s is not attached to a loaded invoice", invoicedomain.ErrInvalidInvoice, line.Ref())
	}
	date := invoice.EffectiveAccountingDate()
	period, err := t.periods.Find(ctx, invoice.CompanyID, date)
	if err != nil {
		return nil, err
	}
	if !period.IsAngloSaxon() {
		return result, nil
	}

	moveType, err := MoveTypeFor(invoice.Type, line.Quantity)
	if err != nil {
		return nil, err
	}

	moves, err := t.eligibleMoves(ctx, line)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].EffectiveDateOrZero().Before(moves[j].EffectiveDateOrZero())
	})

	dated := txcontext.WithDate(ctx, date)
	cost, err := t.costs.AngloSaxonCost(dated, line.Product, moves, line.Quantity.Abs(), line.Unit, moveType)
	if err != nil {
		return nil, err
	}
	cost = invoice.Currency.Round(cost)

	pair, err := t.cogsLines(dated, line, moveType, cost)
	if err != nil {
		return nil, err
	}

	t.obsMetrics.IncAngloSaxonEntry(string(moveType))
	ctxlogger.WithContext(ctx, t.log).Debug("anglo-saxon cost computed",
		zap.String("invoice_line", line.Ref()),
		zap.String("move_type", string(moveType)),
		zap.Int("stock_moves", len(moves)),
		zap.String("cost", cost.String()),
	)
	return append(result, pair...), nil
}

// MoveTypeFor maps an invoice type onto the stock valuation direction. A
// negative quantity is a return and flips the direction.
func MoveTypeFor(invoiceType invoicedomain.InvoiceType, quantity decimal.Decimal) (stockdomain.MoveType, error) {
	var moveType stockdomain.MoveType
	switch invoiceType {
	case invoicedomain.InvoiceTypeInInvoice:
		moveType = stockdomain.MoveTypeInSupplier
	case invoicedomain.InvoiceTypeOutInvoice:
		moveType = stockdomain.MoveTypeOutCustomer
	case invoicedomain.InvoiceTypeInCreditNote:
		moveType = stockdomain.MoveTypeOutSupplier
	case invoicedomain.InvoiceTypeOutCreditNote:
		moveType = stockdomain.MoveTypeInCustomer
	default:
		return "", fmt.Errorf("%w: %q", invoicedomain.ErrInvalidInvoiceType, invoiceType)
	}
	if quantity.IsNegative() {
		moveType = moveType.Inverted()
	}
	return moveType, nil
}

// eligibleMoves keeps the done moves of the line product. Moves of other
// products are dropped with a warning.
func (t *Translator) eligibleMoves(ctx context.Context, line *invoicedomain.InvoiceLine) ([]*stockdomain.Move, error) {
	moves := make([]*stockdomain.Move, 0, len(line.StockMoves))
	mismatch := false
	for _, move := range line.StockMoves {
		if !move.IsDone() {
			continue
		}
		if move.ProductID != line.Product.ID {
			mismatch = true
			continue
		}
		moves = append(moves, move)
	}

	if mismatch {
		err := t.warner.Warn(ctx, warningdomain.Warning{
			Name: WarningDifferentProduct,
			Key:  line.Ref() + ".stock.different_product",
			Message: fmt.Sprintf(
				"The invoice line '%s' is linked to stock moves for other products than '%s'. This may compute a wrong COGS.",
				line.DisplayName(), line.Product.Name,
			),
		})
		if err != nil {
			return nil, err
		}
	}
	return moves, nil
}

// cogsLines builds the balanced stock/COGS pair for cost.
func (t *Translator) cogsLines(ctx context.Context, line *invoicedomain.InvoiceLine, moveType stockdomain.MoveType, cost decimal.Decimal) ([]ledgerdomain.MoveLine, error) {
	if !moveType.IsInbound() && !moveType.IsOutbound() {
		panic(fmt.Sprintf("anglosaxon: invalid move type %q", moveType))
	}

	stockAccountID, err := line.Product.StockAccountID(moveType.StockAccountKind())
	if err != nil {
		return nil, err
	}

	stock := ledgerdomain.MoveLine{
		AccountID:   stockAccountID,
		Description: line.Description,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	if moveType.IsInbound() {
		stock.Debit = cost
	} else {
		stock.Credit = cost
	}

	var counterAccountID snowflake.ID
	if moveType.IsSupplier() {
		if line.AccountID == nil || *line.AccountID == 0 {
			return nil, fmt.Errorf("%w: %s", invoicedomain.ErrMissingLineAccount, line.Ref())
		}
		counterAccountID = *line.AccountID
	} else {
		counterAccountID, err = line.Product.COGSAccountID()
		if err != nil {
			return nil, err
		}
	}

	counter := ledgerdomain.MoveLine{
		AccountID:   counterAccountID,
		Description: line.Description,
		Debit:       stock.Credit,
		Credit:      stock.Debit,
	}

	accounts, err := t.ledger.GetAccounts(ctx, []snowflake.ID{counterAccountID})
	if err != nil {
		return nil, err
	}
	account, ok := accounts[counterAccountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgerdomain.ErrAccountNotFound, counterAccountID)
	}
	if account.RequiresParty() {
		partyID := line.Invoice.PartyID
		counter.PartyID = &partyID
	}

	return []ledgerdomain.MoveLine{stock, counter}, nil
}
