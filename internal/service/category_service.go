package service

import (
	"context"
	"fmt"

	"taxengine/internal/model"
	"taxengine/internal/repository"
)

// --- DTOs ---

type AccountMappingResponse struct {
	AccountNumber string  `json:"account_number"`
	AccountName   string  `json:"account_name"`
	TaxLine       string  `json:"tax_line"`
	AfaAccount    *string `json:"afa_account"`
}

type CostCategoryResponse struct {
	ID                        string                  `json:"id"`
	Name                      string                  `json:"name"`
	NameShort                 string                  `json:"name_short"`
	Type                      string                  `json:"type"`
	Description               string                  `json:"description"`
	TaxTreatment              string                  `json:"tax_treatment"`
	StandardDepreciationYears *int                    `json:"standard_depreciation_years"`
	Mapping                   *AccountMappingResponse `json:"mapping,omitempty"`
}

// CategoryGroup bundles categories of one type for grouped display.
type CategoryGroup struct {
	Type       string                 `json:"type"`
	Categories []CostCategoryResponse `json:"categories"`
}

// --- Interface ---

type CategoryService interface {
	Resolve(ctx context.Context, categoryID string) (CostCategoryResponse, error)
	Search(ctx context.Context, filterText, typeFilter string) ([]CategoryGroup, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// --- Implementation ---

// Resolve returns the category together with its account mapping. A category
// without a mapping is a data-quality defect reported as ErrNotMapped, never
// treated as "category without accounts".
func (s *categoryService) Resolve(ctx context.Context, categoryID string) (CostCategoryResponse, error) {
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if isNotFound(err) {
			return CostCategoryResponse{}, fmt.Errorf("%w: category '%s'", repository.ErrNotFound, categoryID)
		}
		return CostCategoryResponse{}, fmt.Errorf("failed to resolve category '%s': %w", categoryID, err)
	}

	if category.Mapping == nil {
		return CostCategoryResponse{}, fmt.Errorf("%w: category '%s'", repository.ErrNotMapped, categoryID)
	}

	return toCategoryResponse(*category), nil
}

// Search returns matching categories grouped by type in the fixed display
// order. Matching is case-insensitive substring against id, name and
// description.
func (s *categoryService) Search(ctx context.Context, filterText, typeFilter string) ([]CategoryGroup, error) {
	if typeFilter != "" && !model.ValidCategoryType(typeFilter) {
		return nil, fmt.Errorf("%w: unknown category type %q", ErrValidation, typeFilter)
	}

	categories, err := s.repo.Search(ctx, filterText, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to search categories: %w", err)
	}

	byType := make(map[string][]CostCategoryResponse)
	for _, c := range categories {
		byType[c.Type] = append(byType[c.Type], toCategoryResponse(c))
	}

	groups := make([]CategoryGroup, 0, len(byType))
	for _, t := range model.CategoryTypeOrder {
		if items, ok := byType[t]; ok {
			groups = append(groups, CategoryGroup{Type: t, Categories: items})
		}
	}
	return groups, nil
}

// --- Helpers ---

func toCategoryResponse(c model.CostCategory) CostCategoryResponse {
	res := CostCategoryResponse{
		ID:                        c.ID,
		Name:                      c.Name,
		NameShort:                 c.NameShort,
		Type:                      c.Type,
		Description:               c.Description,
		TaxTreatment:              c.TaxTreatment,
		StandardDepreciationYears: c.StandardDepreciationYears,
	}
	if c.Mapping != nil {
		res.Mapping = &AccountMappingResponse{
			AccountNumber: c.Mapping.AccountNumber,
			AccountName:   c.Mapping.AccountName,
			TaxLine:       c.Mapping.TaxLine,
			AfaAccount:    c.Mapping.AfaAccount,
		}
	}
	return res
}
