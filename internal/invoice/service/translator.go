package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	"go.uber.org/fx"
)

type TranslatorParams struct {
	fx.In

	Converter currencydomain.Converter
}

// BaseTranslator posts the line amount on the line account.
type BaseTranslator struct {
	converter currencydomain.Converter
}

func NewBaseTranslator(p TranslatorParams) invoicedomain.MoveLineTranslator {
	return &BaseTranslator{converter: p.Converter}
}

func (t *BaseTranslator) MoveLines(ctx context.Context, line *invoicedomain.InvoiceLine) ([]ledgerdomain.MoveLine, error) {
	if line == nil || line.Kind != invoicedomain.LineKindLine {
		return nil, nil
	}
	invoice := line.Invoice
	if invoice == nil || invoice.Currency == nil {
		return nil, fmt.Errorf("%w: line %d is not attached to a loaded invoice", invoicedomain.ErrInvalidInvoice, line.ID)
	}
	if !invoice.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", invoicedomain.ErrInvalidInvoiceType, invoice.Type)
	}
	if line.AccountID == nil || *line.AccountID == 0 {
		return nil, fmt.Errorf("%w: %s", invoicedomain.ErrMissingLineAccount, line.Ref())
	}

	amount := invoice.Currency.Round(line.Quantity.Mul(line.UnitPrice))
	second := decimal.NullDecimal{}
	if invoice.IsForeignCurrency() {
		second = decimal.NewNullDecimal(amount)
		converted, err := t.converter.Compute(
			txcontext.WithDate(ctx, invoice.EffectiveCurrencyDate()),
			invoice.Currency, amount, invoice.Company.Currency, true,
		)
		if err != nil {
			return nil, err
		}
		amount = converted
	}

	debit := invoice.Type.DebitsLines()
	if amount.IsNegative() {
		debit = !debit
		amount = amount.Neg()
	}

	moveLine := ledgerdomain.MoveLine{
		AccountID:   *line.AccountID,
		Description: line.Description,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	if debit {
		moveLine.Debit = amount
	} else {
		moveLine.Credit = amount
	}
	if second.Valid {
		value := second.Decimal.Abs()
		if !debit {
			value = value.Neg()
		}
		currencyID := invoice.Currency.ID
		moveLine.AmountSecondCurrency = decimal.NewNullDecimal(value)
		moveLine.SecondCurrencyID = &currencyID
	}
	if line.Account.RequiresParty() {
		partyID := invoice.PartyID
		moveLine.PartyID = &partyID
	}
	return []ledgerdomain.MoveLine{moveLine}, nil
}
