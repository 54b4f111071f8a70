package service_test

import (
	"context"
	"errors"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/repository"
)

func seedCategory(t *testing.T, env *testEnv, id, catType string, mapped bool) {
	t.Helper()
	category := model.CostCategory{
		ID:           id,
		Name:         id,
		Type:         catType,
		TaxTreatment: model.TreatmentImmediate,
	}
	if mapped {
		category.Mapping = &model.AccountMapping{
			AccountNumber: "4260",
			AccountName:   "Some account",
			TaxLine:       "Anlage V Zeile 40",
		}
	}
	if err := env.categoryRepo.Create(context.Background(), &category); err != nil {
		t.Fatalf("seed category %s failed: %v", id, err)
	}
}

func TestResolveCategoryReturnsMapping(t *testing.T) {
	env := newTestEnv()
	seedCategory(t, env, "maintenance_repairs", model.CategoryTypeMaintenance, true)

	got, err := env.categories.Resolve(context.Background(), "maintenance_repairs")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Mapping == nil {
		t.Fatal("expected mapping in response")
	}
	if got.Mapping.AccountNumber != "4260" {
		t.Errorf("unexpected account number %s", got.Mapping.AccountNumber)
	}
}

func TestResolveCategoryErrors(t *testing.T) {
	env := newTestEnv()
	seedCategory(t, env, "orphan_category", model.CategoryTypeOtherCost, false)

	// Unknown and unmapped are different failures.
	if _, err := env.categories.Resolve(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}
	if _, err := env.categories.Resolve(context.Background(), "orphan_category"); !errors.Is(err, repository.ErrNotMapped) {
		t.Errorf("unmapped: expected ErrNotMapped, got %v", err)
	}
}

func TestSearchCategoriesGroupsByTypeInDisplayOrder(t *testing.T) {
	env := newTestEnv()
	// Seed out of display order on purpose.
	seedCategory(t, env, "financing_interest", model.CategoryTypeFinancing, true)
	seedCategory(t, env, "maintenance_repairs", model.CategoryTypeMaintenance, true)
	seedCategory(t, env, "maintenance_garden", model.CategoryTypeMaintenance, true)
	seedCategory(t, env, "tax_property", model.CategoryTypeTax, true)

	groups, err := env.categories.Search(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	wantOrder := []string{model.CategoryTypeMaintenance, model.CategoryTypeTax, model.CategoryTypeFinancing}
	if len(groups) != len(wantOrder) {
		t.Fatalf("expected %d groups, got %d", len(wantOrder), len(groups))
	}
	for i, want := range wantOrder {
		if groups[i].Type != want {
			t.Errorf("group %d: expected type %s, got %s", i, want, groups[i].Type)
		}
	}
	if len(groups[0].Categories) != 2 {
		t.Errorf("expected 2 maintenance categories, got %d", len(groups[0].Categories))
	}
}

func TestSearchCategoriesFilter(t *testing.T) {
	env := newTestEnv()
	seedCategory(t, env, "maintenance_repairs", model.CategoryTypeMaintenance, true)
	seedCategory(t, env, "tax_property", model.CategoryTypeTax, true)

	groups, err := env.categories.Search(context.Background(), "repair", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Type != model.CategoryTypeMaintenance {
		t.Errorf("expected only the maintenance group, got %+v", groups)
	}

	if _, err := env.categories.Search(context.Background(), "", "nonsense"); err == nil {
		t.Error("expected error for unknown type filter")
	}
}
