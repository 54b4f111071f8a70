package service_test

import (
	"context"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/service"
)

func newMigrationEnv() (*testEnv, service.MigrationService) {
	env := newTestEnv()
	svc := service.NewMigrationService(env.configRepo, env.ruleRepo, env.categoryRepo, env.auditRepo, env.txManager)
	return env, svc
}

func TestMigrateLoadsLegacyData(t *testing.T) {
	env, svc := newMigrationEnv()
	ctx := context.Background()

	result, err := svc.Migrate(ctx, "")
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if result.ConfigsCreated == 0 || result.RulesCreated == 0 || result.CategoriesCreated == 0 {
		t.Fatalf("expected configs, rules and categories to be created, got %+v", result)
	}
	if result.Skipped != 0 {
		t.Errorf("first run should skip nothing, skipped %d", result.Skipped)
	}

	// The Freigrenze history carries both the old and the raised value.
	old, err := env.configs.GetConfig(ctx, service.ConfigKeyFreigrenze, 2023)
	if err != nil {
		t.Fatalf("GetConfig 2023 failed: %v", err)
	}
	if old.Value != "600" {
		t.Errorf("2023 Freigrenze: got %s, want 600", old.Value)
	}
	current, err := env.configs.GetConfig(ctx, service.ConfigKeyFreigrenze, 2024)
	if err != nil {
		t.Fatalf("GetConfig 2024 failed: %v", err)
	}
	if current.Value != "1000" {
		t.Errorf("2024 Freigrenze: got %s, want 1000", current.Value)
	}

	// Seeded rules resolve and carry valid bodies.
	rule, err := env.rules.GetRule(ctx, "speculation_holding_period", 2024)
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if _, err := model.ParseRuleBody(rule.RuleType, rule.Body); err != nil {
		t.Errorf("migrated rule body invalid: %v", err)
	}

	// Seeded categories are mapped.
	if _, err := env.categories.Resolve(ctx, "maintenance_repairs"); err != nil {
		t.Errorf("Resolve maintenance_repairs failed: %v", err)
	}
	if _, err := env.categories.Resolve(ctx, "tax_property"); err != nil {
		t.Errorf("Resolve tax_property failed: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	_, svc := newMigrationEnv()
	ctx := context.Background()

	first, err := svc.Migrate(ctx, "")
	if err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}

	second, err := svc.Migrate(ctx, "")
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if second.ConfigsCreated != 0 || second.RulesCreated != 0 || second.CategoriesCreated != 0 {
		t.Errorf("second run must create nothing, got %+v", second)
	}
	wantSkipped := first.ConfigsCreated + first.RulesCreated + first.CategoriesCreated
	if second.Skipped != wantSkipped {
		t.Errorf("second run should skip %d items, skipped %d", wantSkipped, second.Skipped)
	}
}
