package repository

import (
	"context"

	"roleconsole/internal/model"
	"roleconsole/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	// ListCategories returns categories with their modules, both in display order
	ListCategories(ctx context.Context, onlyActive bool) ([]model.Category, error)
	UpsertCategory(ctx context.Context, category *model.Category) error
	UpsertModule(ctx context.Context, module *model.Module) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCategories(ctx context.Context, onlyActive bool) ([]model.Category, error) {
	var categories []model.Category

	db := GetDB(ctx, r.db)
	query := db.Preload("Modules", func(tx *gorm.DB) *gorm.DB {
		if onlyActive {
			tx = tx.Where("is_active = ?", true)
		}
		return tx.Order("display_order asc, name asc")
	})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("display_order asc, name asc").Find(&categories).Error; err != nil {
		return nil, apperror.Transport("list categories", err)
	}
	return categories, nil
}

func (r *catalogRepository) UpsertCategory(ctx context.Context, category *model.Category) error {
	err := GetDB(ctx, r.db).Omit("Modules").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "display_order", "is_active", "updated_at"}),
	}).Create(category).Error
	return apperror.Transport("upsert category", err)
}

func (r *catalogRepository) UpsertModule(ctx context.Context, module *model.Module) error {
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category_code", "display_order", "is_active", "updated_at"}),
	}).Create(module).Error
	return apperror.Transport("upsert module", err)
}
