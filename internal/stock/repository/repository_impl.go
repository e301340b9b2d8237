package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	"github.com/smallbiznis/stockledger/internal/stock/domain"
	pkgdb "github.com/smallbiznis/stockledger/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Products   productdomain.Repository
	Currencies currencydomain.Repository
	Companies  companydomain.Repository
}

type repo struct {
	products   productdomain.Repository
	currencies currencydomain.Repository
	companies  companydomain.Repository
}

func Provide(p Params) domain.Repository {
	return &repo{
		products:   p.Products,
		currencies: p.Currencies,
		companies:  p.Companies,
	}
}

func (r *repo) FindByInvoiceLines(ctx context.Context, db *gorm.DB, lineIDs []snowflake.ID) (map[snowflake.ID][]*domain.Move, error) {
	result := make(map[snowflake.ID][]*domain.Move, len(lineIDs))
	if len(lineIDs) == 0 {
		return result, nil
	}

	var links []domain.InvoiceLineMove
	if err := db.WithContext(ctx).
		Where("invoice_line_id IN ?", lineIDs).
		Order("invoice_line_id ASC, stock_move_id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return result, nil
	}

	moveIDs := make([]snowflake.ID, 0, len(links))
	for _, link := range links {
		moveIDs = append(moveIDs, link.StockMoveID)
	}
	moves, err := r.findMoves(ctx, db, moveIDs)
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		if move, ok := moves[link.StockMoveID]; ok {
			result[link.InvoiceLineID] = append(result[link.InvoiceLineID], move)
		}
	}
	return result, nil
}

func (r *repo) findMoves(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Move, error) {
	// Counters are written back as absolute values, so concurrent postings
	// sharing a move must serialize on its row.
	var items []domain.Move
	if err := pkgdb.ForUpdate(db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	var productIDs, unitIDs, currencyIDs, companyIDs []snowflake.ID
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		unitIDs = append(unitIDs, item.UnitID)
		companyIDs = append(companyIDs, item.CompanyID)
		if item.CurrencyID != nil {
			currencyIDs = append(currencyIDs, *item.CurrencyID)
		}
	}

	products, err := r.products.FindByIDs(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}
	units, err := r.products.FindUnits(ctx, db, unitIDs)
	if err != nil {
		return nil, err
	}
	currencies, err := r.currencies.FindByIDs(ctx, db, currencyIDs)
	if err != nil {
		return nil, err
	}
	companies, err := r.companies.FindByIDs(ctx, db, companyIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[snowflake.ID]*domain.Move, len(items))
	for i := range items {
		move := items[i]
		move.Product = products[move.ProductID]
		move.Unit = units[move.UnitID]
		move.Company = companies[move.CompanyID]
		if move.CurrencyID != nil {
			move.Currency = currencies[*move.CurrencyID]
		}
		result[move.ID] = &move
	}
	return result, nil
}

func (r *repo) SaveAngloSaxonQuantities(ctx context.Context, db *gorm.DB, moves []*domain.Move) error {
	now := time.Now().UTC()
	for _, move := range moves {
		if move == nil {
			continue
		}
		if err := db.WithContext(ctx).Exec(
			`UPDATE stock_moves
			 SET in_anglo_saxon_quantity = ?, out_anglo_saxon_quantity = ?, updated_at = ?
			 WHERE id = ?`,
			move.InAngloSaxonQuantity,
			move.OutAngloSaxonQuantity,
			now,
			move.ID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
