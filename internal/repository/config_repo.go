package repository

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConfigEntryRepository interface {
	Create(ctx context.Context, entry *model.ConfigEntry) error
	Save(ctx context.Context, entry *model.ConfigEntry) error
	FindActiveForYear(ctx context.Context, key string, taxYear int) ([]model.ConfigEntry, error)
	FindOpenVersion(ctx context.Context, key string) (*model.ConfigEntry, error)
	CountOverlapping(ctx context.Context, key string, from int, until *int, excludeID *uuid.UUID) (int64, error)
	FindByKey(ctx context.Context, key string) ([]model.ConfigEntry, error)
	List(ctx context.Context, page, limit int) ([]model.ConfigEntry, int64, error)
}

type configEntryRepository struct {
	db *gorm.DB
}

func NewConfigEntryRepository(db *gorm.DB) ConfigEntryRepository {
	return &configEntryRepository{db: db}
}

func (r *configEntryRepository) Create(ctx context.Context, entry *model.ConfigEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *configEntryRepository) Save(ctx context.Context, entry *model.ConfigEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}

// FindActiveForYear returns every active entry whose window covers the tax
// year. More than one result is an invariant violation the service reports
// as a data-integrity error instead of picking a winner.
func (r *configEntryRepository) FindActiveForYear(ctx context.Context, key string, taxYear int) ([]model.ConfigEntry, error) {
	var entries []model.ConfigEntry
	err := GetDB(ctx, r.db).
		Where("key = ? AND is_active = ? AND valid_from_tax_year <= ? AND (valid_until_tax_year IS NULL OR valid_until_tax_year > ?)",
			key, true, taxYear, taxYear).
		Order("valid_from_tax_year DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindOpenVersion returns the active entry with an open-ended window, if any.
// Re-versioning closes this window before inserting the successor.
func (r *configEntryRepository) FindOpenVersion(ctx context.Context, key string) (*model.ConfigEntry, error) {
	var entry model.ConfigEntry
	err := GetDB(ctx, r.db).
		Where("key = ? AND is_active = ? AND valid_until_tax_year IS NULL", key, true).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *configEntryRepository) CountOverlapping(ctx context.Context, key string, from int, until *int, excludeID *uuid.UUID) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.ConfigEntry{}).
		Where("key = ? AND is_active = ?", key, true).
		Where("(valid_until_tax_year IS NULL OR valid_until_tax_year > ?)", from)

	if until != nil {
		query = query.Where("valid_from_tax_year < ?", *until)
	}
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *configEntryRepository) FindByKey(ctx context.Context, key string) ([]model.ConfigEntry, error) {
	var entries []model.ConfigEntry
	err := GetDB(ctx, r.db).
		Where("key = ?", key).
		Order("valid_from_tax_year DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *configEntryRepository) List(ctx context.Context, page, limit int) ([]model.ConfigEntry, int64, error) {
	var entries []model.ConfigEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ConfigEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("key asc, valid_from_tax_year desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
