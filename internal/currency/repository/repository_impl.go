package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/currency/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Currency, error) {
	result := make(map[snowflake.ID]*domain.Currency, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []domain.Currency
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		item := items[i]
		result[item.ID] = &item
	}
	return result, nil
}

func (r *repo) FindRate(ctx context.Context, db *gorm.DB, currencyID snowflake.ID, date time.Time) (*domain.Rate, error) {
	var items []domain.Rate
	err := db.WithContext(ctx).
		Where("currency_id = ? AND date <= ?", currencyID, date.UTC()).
		Order("date DESC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
