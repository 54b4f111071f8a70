package repository

import (
	"context"

	"taxengine/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.CostCategory) error
	CreateMapping(ctx context.Context, mapping *model.AccountMapping) error
	FindByID(ctx context.Context, id string) (*model.CostCategory, error)
	Search(ctx context.Context, filterText, typeFilter string) ([]model.CostCategory, error)
	List(ctx context.Context) ([]model.CostCategory, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.CostCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) CreateMapping(ctx context.Context, mapping *model.AccountMapping) error {
	return GetDB(ctx, r.db).Create(mapping).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*model.CostCategory, error) {
	var category model.CostCategory
	if err := GetDB(ctx, r.db).Preload("Mapping").First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Search matches filterText case-insensitively against id, name and
// description; empty filterText matches everything.
func (r *categoryRepository) Search(ctx context.Context, filterText, typeFilter string) ([]model.CostCategory, error) {
	query := GetDB(ctx, r.db).Preload("Mapping")

	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	}
	if filterText != "" {
		like := "%" + filterText + "%"
		query = query.Where("id ILIKE ? OR name ILIKE ? OR description ILIKE ?", like, like, like)
	}

	var categories []model.CostCategory
	if err := query.Order("type asc, name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]model.CostCategory, error) {
	var categories []model.CostCategory
	if err := GetDB(ctx, r.db).Preload("Mapping").Order("type asc, name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
