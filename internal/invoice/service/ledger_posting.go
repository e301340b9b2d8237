package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	"github.com/smallbiznis/stockledger/pkg/log/ctxlogger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// buildMoveLines translates every invoice line and closes the entry on the
// invoice account:
//
//	Customer invoice: Debit receivable, Credit revenue lines
//	Supplier invoice: Debit expense lines, Credit payable
//
// Anglo-saxon COGS pairs come from the decorated translator and balance on
// their own, so they never change the counterpart amount.
func (s *Service) buildMoveLines(ctx context.Context, invoice *invoicedomain.Invoice) ([]ledgerdomain.MoveLine, error) {
	if !invoice.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", invoicedomain.ErrInvalidInvoiceType, invoice.Type)
	}

	var lines []ledgerdomain.MoveLine
	for _, line := range invoice.Lines {
		translated, err := s.translator.MoveLines(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("translate %s: %w", line.Ref(), err)
		}
		lines = append(lines, translated...)
	}
	if len(lines) == 0 {
		return nil, invoicedomain.ErrEmptyInvoice
	}

	if counterpart, ok := counterpartLine(invoice, lines); ok {
		lines = append(lines, counterpart)
	}

	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return nil, fmt.Errorf("invoice move not balanced: %w", err)
	}
	return lines, nil
}

// counterpartLine balances lines on the invoice account. It reports false
// when lines already net to zero.
func counterpartLine(invoice *invoicedomain.Invoice, lines []ledgerdomain.MoveLine) (ledgerdomain.MoveLine, bool) {
	net := decimal.Zero
	second := decimal.Zero
	for _, line := range lines {
		net = net.Add(line.Balance())
		if line.AmountSecondCurrency.Valid {
			second = second.Add(line.AmountSecondCurrency.Decimal)
		}
	}
	if net.IsZero() {
		return ledgerdomain.MoveLine{}, false
	}

	line := ledgerdomain.MoveLine{
		AccountID:   invoice.AccountID,
		Description: invoice.Description,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	if net.IsPositive() {
		line.Credit = net
	} else {
		line.Debit = net.Neg()
	}
	if invoice.IsForeignCurrency() {
		currencyID := invoice.Currency.ID
		line.AmountSecondCurrency = decimal.NewNullDecimal(second.Neg())
		line.SecondCurrencyID = &currencyID
	}
	if invoice.Account.RequiresParty() {
		partyID := invoice.PartyID
		line.PartyID = &partyID
	}
	return line, true
}

// postInvoiceToLedger posts the move for invoice inside the transaction bound to ctx.
func (s *Service) postInvoiceToLedger(ctx context.Context, invoice *invoicedomain.Invoice, lines []ledgerdomain.MoveLine) (*ledgerdomain.Move, error) {
	date := invoice.EffectiveAccountingDate()
	period, err := s.periods.Find(ctx, invoice.CompanyID, date)
	if err != nil {
		return nil, err
	}

	description := invoice.Description
	if description == "" {
		description = invoice.Number
	}
	move := &ledgerdomain.Move{
		CompanyID:   invoice.CompanyID,
		PeriodID:    period.ID,
		Date:        date,
		Origin:      invoice.Origin(),
		Description: description,
		Metadata: datatypes.JSONMap{
			"invoice_id":   invoice.ID.String(),
			"invoice_type": string(invoice.Type),
		},
		Lines: lines,
	}
	if err := s.ledger.PostMove(ctx, move); err != nil {
		return nil, fmt.Errorf("post invoice move: %w", err)
	}

	ctxlogger.WithContext(ctx, s.log).Info("posted invoice to ledger",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("move_id", move.ID.String()),
		zap.String("period_id", period.ID.String()),
		zap.Int("lines", len(move.Lines)),
	)
	return move, nil
}
