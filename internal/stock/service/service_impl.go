package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	"github.com/smallbiznis/stockledger/internal/stock/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Converter currencydomain.Converter
}

type Service struct {
	log       *zap.Logger
	converter currencydomain.Converter
}

func New(p Params) domain.CostAggregator {
	return &Service{
		log:       p.Log.Named("stock.service"),
		converter: p.Converter,
	}
}

// AngloSaxonCost consumes the not yet valued quantity of each move in order
// and returns the cost of quantity in company currency. Any quantity the
// moves cannot cover is valued at the product cost price. Consumed
// quantities are written back onto the moves; persisting them is up to the
// caller.
func (s *Service) AngloSaxonCost(ctx context.Context, product *productdomain.Product, moves []*domain.Move, quantity decimal.Decimal, unit *productdomain.Unit, moveType domain.MoveType) (decimal.Decimal, error) {
	if !moveType.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidMoveType, moveType)
	}
	if product == nil {
		return decimal.Zero, productdomain.ErrNotFound
	}

	remaining, err := productdomain.ComputeQuantity(unit, quantity, product.DefaultUnit)
	if err != nil {
		return decimal.Zero, err
	}

	cost := decimal.Zero
	for _, move := range moves {
		if !remaining.IsPositive() {
			break
		}
		if move.ProductID != product.ID {
			return decimal.Zero, fmt.Errorf("%w: move %s is for product %s, not %s", domain.ErrProductMismatch, move.ID, move.ProductID, product.ID)
		}

		moveQty, err := productdomain.ComputeQuantity(move.Unit, move.Quantity, product.DefaultUnit)
		if err != nil {
			return decimal.Zero, err
		}
		valued, err := productdomain.ComputeQuantity(move.Unit, move.AngloSaxonQuantity(moveType), product.DefaultUnit)
		if err != nil {
			return decimal.Zero, err
		}
		available := moveQty.Sub(valued)
		if !available.IsPositive() {
			continue
		}
		take := decimal.Min(available, remaining)

		unitCost, err := s.unitCost(ctx, product, move, moveType)
		if err != nil {
			return decimal.Zero, err
		}
		cost = cost.Add(unitCost.Mul(take))

		consumed, err := productdomain.ComputeQuantity(product.DefaultUnit, take, move.Unit)
		if err != nil {
			return decimal.Zero, err
		}
		move.SetAngloSaxonQuantity(moveType, move.AngloSaxonQuantity(moveType).Add(consumed))
		remaining = remaining.Sub(take)

		s.log.Debug("consumed stock move",
			zap.String("move_id", move.ID.String()),
			zap.String("move_type", string(moveType)),
			zap.String("quantity", take.String()),
			zap.String("unit_cost", unitCost.String()),
		)
	}

	if remaining.IsPositive() {
		cost = cost.Add(remaining.Mul(product.CostPrice))
	}
	return cost, nil
}

// unitCost is the cost per product default unit in company currency.
func (s *Service) unitCost(ctx context.Context, product *productdomain.Product, move *domain.Move, moveType domain.MoveType) (decimal.Decimal, error) {
	if !moveType.IsSupplier() {
		return move.CostPrice, nil
	}

	price, err := productdomain.ComputePrice(move.Unit, move.UnitPrice, product.DefaultUnit)
	if err != nil {
		return decimal.Zero, err
	}
	if move.Currency == nil || move.Company == nil || move.Company.Currency == nil {
		return price, nil
	}
	return s.converter.Compute(ctx, move.Currency, price, move.Company.Currency, false)
}
