package repository

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LawUpdateRepository interface {
	Create(ctx context.Context, update *model.TaxLawUpdate) error
	Save(ctx context.Context, update *model.TaxLawUpdate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxLawUpdate, error)
	FindBySourceRef(ctx context.Context, sourceRef string) (*model.TaxLawUpdate, error)
	List(ctx context.Context, status string, page, limit int) ([]model.TaxLawUpdate, int64, error)
}

type lawUpdateRepository struct {
	db *gorm.DB
}

func NewLawUpdateRepository(db *gorm.DB) LawUpdateRepository {
	return &lawUpdateRepository{db: db}
}

func (r *lawUpdateRepository) Create(ctx context.Context, update *model.TaxLawUpdate) error {
	return GetDB(ctx, r.db).Create(update).Error
}

func (r *lawUpdateRepository) Save(ctx context.Context, update *model.TaxLawUpdate) error {
	return GetDB(ctx, r.db).Save(update).Error
}

func (r *lawUpdateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxLawUpdate, error) {
	var update model.TaxLawUpdate
	if err := GetDB(ctx, r.db).First(&update, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *lawUpdateRepository) FindBySourceRef(ctx context.Context, sourceRef string) (*model.TaxLawUpdate, error) {
	var update model.TaxLawUpdate
	if err := GetDB(ctx, r.db).First(&update, "source_ref = ?", sourceRef).Error; err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *lawUpdateRepository) List(ctx context.Context, status string, page, limit int) ([]model.TaxLawUpdate, int64, error) {
	var total int64
	query := GetDB(ctx, r.db).Model(&model.TaxLawUpdate{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	var updates []model.TaxLawUpdate
	fetch := GetDB(ctx, r.db).Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Find(&updates).Error; err != nil {
		return nil, 0, err
	}

	return updates, total, nil
}
