package repository

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *model.Rule) error
	Save(ctx context.Context, rule *model.Rule) error
	FindActiveForYear(ctx context.Context, ruleCode string, taxYear int) ([]model.Rule, error)
	FindOpenVersion(ctx context.Context, ruleCode string) (*model.Rule, error)
	CountOverlapping(ctx context.Context, ruleCode string, from int, until *int, excludeID *uuid.UUID) (int64, error)
	ListActive(ctx context.Context, ruleType string, taxYear int) ([]model.Rule, error)
	FindByCode(ctx context.Context, ruleCode string) ([]model.Rule, error)
	List(ctx context.Context, page, limit int) ([]model.Rule, int64, error)
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(ctx context.Context, rule *model.Rule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *ruleRepository) Save(ctx context.Context, rule *model.Rule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *ruleRepository) FindActiveForYear(ctx context.Context, ruleCode string, taxYear int) ([]model.Rule, error) {
	var rules []model.Rule
	err := GetDB(ctx, r.db).
		Where("rule_code = ? AND is_active = ? AND valid_from_tax_year <= ? AND (valid_until_tax_year IS NULL OR valid_until_tax_year > ?)",
			ruleCode, true, taxYear, taxYear).
		Order("valid_from_tax_year DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) FindOpenVersion(ctx context.Context, ruleCode string) (*model.Rule, error) {
	var rule model.Rule
	err := GetDB(ctx, r.db).
		Where("rule_code = ? AND is_active = ? AND valid_until_tax_year IS NULL", ruleCode, true).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) CountOverlapping(ctx context.Context, ruleCode string, from int, until *int, excludeID *uuid.UUID) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Rule{}).
		Where("rule_code = ? AND is_active = ?", ruleCode, true).
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

func (r *ruleRepository) ListActive(ctx context.Context, ruleType string, taxYear int) ([]model.Rule, error) {
	query := GetDB(ctx, r.db).
		Where("is_active = ? AND valid_from_tax_year <= ? AND (valid_until_tax_year IS NULL OR valid_until_tax_year > ?)",
			true, taxYear, taxYear)
	if ruleType != "" {
		query = query.Where("rule_type = ?", ruleType)
	}

	var rules []model.Rule
	if err := query.Order("rule_code asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) FindByCode(ctx context.Context, ruleCode string) ([]model.Rule, error) {
	var rules []model.Rule
	err := GetDB(ctx, r.db).
		Where("rule_code = ?", ruleCode).
		Order("valid_from_tax_year DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) List(ctx context.Context, page, limit int) ([]model.Rule, int64, error) {
	var rules []model.Rule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Rule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("rule_code asc, valid_from_tax_year desc").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}
