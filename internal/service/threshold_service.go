package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/internal/threshold"

	"github.com/shopspring/decimal"
)

// Config keys resolved by the threshold tests. Seeded by the legacy
// migration and versioned through the config store afterwards.
const (
	ConfigKeyFreigrenze              = "freigrenze_sonstige_einkuenfte"
	ConfigKeyRenovationLimitPercent  = "anschaffungsnaher_aufwand_grenze_prozent"
	ConfigKeySpeculationYears        = "spekulationsfrist_jahre"
	ConfigKeySpeculationWarningYears = "spekulationsfrist_warnfenster_jahre"
)

const defaultSpeculationWarningYears = 5

// --- DTOs ---

type MinorIncomeCheckRequest struct {
	TaxYear          int    `json:"tax_year" binding:"required"`
	TotalOtherIncome string `json:"total_other_income" binding:"required"` // decimal string
}

type MinorIncomeCheckResponse struct {
	threshold.MinorIncomeResult
	Freigrenze    string `json:"freigrenze"`
	ConfigEntryID string `json:"config_entry_id"`
}

type RenovationCheckRequest struct {
	TaxYear                  int    `json:"tax_year" binding:"required"`
	CategoryID               string `json:"category_id" binding:"required"`
	NewExpense               string `json:"new_expense" binding:"required"`
	PriorExpenses            string `json:"prior_expenses"`
	BuildingAcquisitionValue string `json:"building_acquisition_value" binding:"required"`
}

type RenovationCheckResponse struct {
	threshold.RenovationResult
	LimitPercent  string `json:"limit_percent"`
	ConfigEntryID string `json:"config_entry_id"`
	CategoryID    string `json:"category_id"`
}

type SpeculationCheckRequest struct {
	TaxYear         int    `json:"tax_year" binding:"required"`
	AcquisitionDate string `json:"acquisition_date" binding:"required"` // YYYY-MM-DD
	SaleDate        string `json:"sale_date" binding:"required"`
	IsSelfUsed      bool   `json:"is_self_used"`
}

type SpeculationCheckResponse struct {
	threshold.SpeculationResult
	YearsThreshold int    `json:"years_threshold"`
	ConfigEntryID  string `json:"config_entry_id"`
}

// --- Interface ---

type ThresholdService interface {
	CheckMinorIncome(ctx context.Context, req MinorIncomeCheckRequest) (MinorIncomeCheckResponse, error)
	CheckRenovationLimit(ctx context.Context, req RenovationCheckRequest) (RenovationCheckResponse, error)
	CheckSpeculation(ctx context.Context, req SpeculationCheckRequest) (SpeculationCheckResponse, error)
}

type thresholdService struct {
	configService   ConfigService
	categoryService CategoryService
}

func NewThresholdService(configService ConfigService, categoryService CategoryService) ThresholdService {
	return &thresholdService{configService: configService, categoryService: categoryService}
}

// --- Implementation ---

func (s *thresholdService) CheckMinorIncome(ctx context.Context, req MinorIncomeCheckRequest) (MinorIncomeCheckResponse, error) {
	total, err := parseNonNegativeAmount("total_other_income", req.TotalOtherIncome)
	if err != nil {
		return MinorIncomeCheckResponse{}, err
	}

	freigrenze, entry, err := s.configService.ResolveDecimal(ctx, ConfigKeyFreigrenze, req.TaxYear)
	if err != nil {
		return MinorIncomeCheckResponse{}, err
	}

	return MinorIncomeCheckResponse{
		MinorIncomeResult: threshold.MinorIncomeExemption(total, freigrenze),
		Freigrenze:        freigrenze.String(),
		ConfigEntryID:     entry.ID.String(),
	}, nil
}

// CheckRenovationLimit categorizes first: only expenses in a maintenance
// category are subject to the renovation limit, anything else is rejected
// before the threshold math runs.
func (s *thresholdService) CheckRenovationLimit(ctx context.Context, req RenovationCheckRequest) (RenovationCheckResponse, error) {
	newExpense, err := parseNonNegativeAmount("new_expense", req.NewExpense)
	if err != nil {
		return RenovationCheckResponse{}, err
	}
	prior := decimal.Zero
	if req.PriorExpenses != "" {
		prior, err = parseNonNegativeAmount("prior_expenses", req.PriorExpenses)
		if err != nil {
			return RenovationCheckResponse{}, err
		}
	}
	buildingValue, err := parseNonNegativeAmount("building_acquisition_value", req.BuildingAcquisitionValue)
	if err != nil {
		return RenovationCheckResponse{}, err
	}
	if buildingValue.IsZero() {
		return RenovationCheckResponse{}, fmt.Errorf("%w: building_acquisition_value must be positive", ErrValidation)
	}

	category, err := s.categoryService.Resolve(ctx, req.CategoryID)
	if err != nil {
		return RenovationCheckResponse{}, err
	}
	if category.Type != model.CategoryTypeMaintenance {
		return RenovationCheckResponse{}, fmt.Errorf("%w: category '%s' (%s) is not subject to the renovation limit",
			ErrValidation, req.CategoryID, category.Type)
	}

	limitPercent, entry, err := s.configService.ResolveDecimal(ctx, ConfigKeyRenovationLimitPercent, req.TaxYear)
	if err != nil {
		return RenovationCheckResponse{}, err
	}

	return RenovationCheckResponse{
		RenovationResult: threshold.RenovationLimit(newExpense, prior, buildingValue, limitPercent),
		LimitPercent:     limitPercent.String(),
		ConfigEntryID:    entry.ID.String(),
		CategoryID:       req.CategoryID,
	}, nil
}

func (s *thresholdService) CheckSpeculation(ctx context.Context, req SpeculationCheckRequest) (SpeculationCheckResponse, error) {
	acquisition, err := time.Parse("2006-01-02", req.AcquisitionDate)
	if err != nil {
		return SpeculationCheckResponse{}, fmt.Errorf("%w: invalid acquisition_date (expected YYYY-MM-DD)", ErrValidation)
	}
	sale, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		return SpeculationCheckResponse{}, fmt.Errorf("%w: invalid sale_date (expected YYYY-MM-DD)", ErrValidation)
	}
	if sale.Before(acquisition) {
		return SpeculationCheckResponse{}, fmt.Errorf("%w: sale_date precedes acquisition_date", ErrValidation)
	}

	yearsValue, entry, err := s.configService.ResolveDecimal(ctx, ConfigKeySpeculationYears, req.TaxYear)
	if err != nil {
		return SpeculationCheckResponse{}, err
	}
	yearsThreshold := int(yearsValue.IntPart())

	warningYears := defaultSpeculationWarningYears
	if warnValue, _, warnErr := s.configService.ResolveDecimal(ctx, ConfigKeySpeculationWarningYears, req.TaxYear); warnErr == nil {
		warningYears = int(warnValue.IntPart())
	} else if !errors.Is(warnErr, repository.ErrNotFound) {
		return SpeculationCheckResponse{}, warnErr
	}

	return SpeculationCheckResponse{
		SpeculationResult: threshold.SpeculationExemption(acquisition, sale, yearsThreshold, warningYears, req.IsSelfUsed),
		YearsThreshold:    yearsThreshold,
		ConfigEntryID:     entry.ID.String(),
	}, nil
}

// --- Helpers ---

func parseNonNegativeAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a valid amount", ErrValidation, field, value)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	return d, nil
}
