package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	"gorm.io/gorm"
)

type repo struct {
	currencies currencydomain.Repository
}

func Provide(currencies currencydomain.Repository) domain.Repository {
	return &repo{currencies: currencies}
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Company, error) {
	result := make(map[snowflake.ID]*domain.Company, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []domain.Company
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}

	currencyIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		currencyIDs = append(currencyIDs, item.CurrencyID)
	}
	currencies, err := r.currencies.FindByIDs(ctx, db, currencyIDs)
	if err != nil {
		return nil, err
	}

	for i := range items {
		company := items[i]
		company.Currency = currencies[company.CurrencyID]
		result[company.ID] = &company
	}
	return result, nil
}
