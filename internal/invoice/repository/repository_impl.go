package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	"github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	"github.com/smallbiznis/stockledger/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Companies  companydomain.Repository
	Currencies currencydomain.Repository
	Products   productdomain.Repository
	Stock      stockdomain.Repository
}

type repo struct {
	companies  companydomain.Repository
	currencies currencydomain.Repository
	products   productdomain.Repository
	stock      stockdomain.Repository
}

func Provide(p Params) domain.Repository {
	return &repo{
		companies:  p.Companies,
		currencies: p.Currencies,
		products:   p.Products,
		stock:      p.Stock,
	}
}

func (r *repo) LoadForPosting(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.ForUpdate(conn.WithContext(ctx)).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}

	companies, err := r.companies.FindByIDs(ctx, conn, []snowflake.ID{invoice.CompanyID})
	if err != nil {
		return nil, err
	}
	invoice.Company = companies[invoice.CompanyID]
	if invoice.Company == nil {
		return nil, fmt.Errorf("%w: company %d", companydomain.ErrNotFound, invoice.CompanyID)
	}

	currencies, err := r.currencies.FindByIDs(ctx, conn, []snowflake.ID{invoice.CurrencyID})
	if err != nil {
		return nil, err
	}
	invoice.Currency = currencies[invoice.CurrencyID]
	if invoice.Currency == nil {
		return nil, fmt.Errorf("%w: currency %d", currencydomain.ErrNotFound, invoice.CurrencyID)
	}

	var lines []domain.InvoiceLine
	if err := conn.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("sequence ASC, id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}

	accountIDs := []snowflake.ID{invoice.AccountID}
	var productIDs, unitIDs, lineIDs []snowflake.ID
	for _, line := range lines {
		lineIDs = append(lineIDs, line.ID)
		if line.ProductID != nil {
			productIDs = append(productIDs, *line.ProductID)
		}
		if line.UnitID != nil {
			unitIDs = append(unitIDs, *line.UnitID)
		}
		if line.AccountID != nil {
			accountIDs = append(accountIDs, *line.AccountID)
		}
	}

	accounts, err := r.findAccounts(ctx, conn, accountIDs)
	if err != nil {
		return nil, err
	}
	invoice.Account = accounts[invoice.AccountID]
	if invoice.Account == nil {
		return nil, fmt.Errorf("%w: invoice account %d", ledgerdomain.ErrAccountNotFound, invoice.AccountID)
	}

	products, err := r.products.FindByIDs(ctx, conn, productIDs)
	if err != nil {
		return nil, err
	}
	units, err := r.products.FindUnits(ctx, conn, unitIDs)
	if err != nil {
		return nil, err
	}
	moves, err := r.stock.FindByInvoiceLines(ctx, conn, lineIDs)
	if err != nil {
		return nil, err
	}

	invoice.Lines = make([]*domain.InvoiceLine, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		line.Invoice = &invoice
		if line.ProductID != nil {
			line.Product = products[*line.ProductID]
		}
		if line.UnitID != nil {
			line.Unit = units[*line.UnitID]
		}
		if line.AccountID != nil {
			line.Account = accounts[*line.AccountID]
		}
		line.StockMoves = moves[line.ID]
		invoice.Lines = append(invoice.Lines, line)
	}
	return &invoice, nil
}

func (r *repo) findAccounts(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*ledgerdomain.Account, error) {
	var items []ledgerdomain.Account
	if err := conn.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	result := make(map[snowflake.ID]*ledgerdomain.Account, len(items))
	for i := range items {
		result[items[i].ID] = &items[i]
	}
	return result, nil
}

func (r *repo) MarkPosted(ctx context.Context, conn *gorm.DB, invoice *domain.Invoice, moveID snowflake.ID, postedAt time.Time) error {
	res := conn.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET state = ?, move_id = ?, posted_at = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		domain.InvoiceStatePosted,
		moveID,
		postedAt,
		postedAt,
		invoice.ID,
		domain.InvoiceStateDraft,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvoiceNotDraft
	}

	invoice.State = domain.InvoiceStatePosted
	invoice.MoveID = &moveID
	invoice.PostedAt = &postedAt
	return nil
}
