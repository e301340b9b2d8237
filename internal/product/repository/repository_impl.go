package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Product, error) {
	result := make(map[snowflake.ID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []domain.Product
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}

	unitIDs := make([]snowflake.ID, 0, len(items))
	categoryIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		unitIDs = append(unitIDs, item.DefaultUnitID)
		if item.CategoryID != nil {
			categoryIDs = append(categoryIDs, *item.CategoryID)
		}
	}

	units, err := r.FindUnits(ctx, db, unitIDs)
	if err != nil {
		return nil, err
	}
	categories, err := r.findCategories(ctx, db, categoryIDs)
	if err != nil {
		return nil, err
	}

	for i := range items {
		product := items[i]
		product.DefaultUnit = units[product.DefaultUnitID]
		if product.CategoryID != nil {
			product.Category = categories[*product.CategoryID]
		}
		result[product.ID] = &product
	}
	return result, nil
}

func (r *repo) FindUnits(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Unit, error) {
	result := make(map[snowflake.ID]*domain.Unit, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []domain.Unit
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		unit := items[i]
		result[unit.ID] = &unit
	}
	return result, nil
}

func (r *repo) findCategories(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Category, error) {
	result := make(map[snowflake.ID]*domain.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []domain.Category
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		category := items[i]
		result[category.ID] = &category
	}
	return result, nil
}
