package service_test

import (
	"context"
	"errors"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/internal/repository/memory"
	"taxengine/internal/service"
)

type testEnv struct {
	store        *memory.Store
	configRepo   *memory.ConfigEntryRepository
	ruleRepo     *memory.RuleRepository
	categoryRepo *memory.CategoryRepository
	updateRepo   *memory.LawUpdateRepository
	auditRepo    *memory.AuditRepository
	txManager    *memory.TransactionManager

	configs    service.ConfigService
	rules      service.RuleService
	categories service.CategoryService
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	env := &testEnv{
		store:        store,
		configRepo:   memory.NewConfigEntryRepository(store),
		ruleRepo:     memory.NewRuleRepository(store),
		categoryRepo: memory.NewCategoryRepository(store),
		updateRepo:   memory.NewLawUpdateRepository(store),
		auditRepo:    memory.NewAuditRepository(store),
		txManager:    memory.NewTransactionManager(store),
	}
	env.configs = service.NewConfigService(env.configRepo, env.auditRepo, env.txManager)
	env.rules = service.NewRuleService(env.ruleRepo, env.auditRepo, env.txManager)
	env.categories = service.NewCategoryService(env.categoryRepo)
	return env
}

func intPtr(v int) *int { return &v }

func TestCreateConfigFirstVersionIsOpenEnded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.configs.CreateConfig(ctx, service.CreateConfigEntryRequest{
		Key:              "freigrenze_sonstige_einkuenfte",
		DisplayName:      "Freigrenze",
		Value:            "600",
		ValueType:        model.ValueTypeCurrency,
		ValidFromTaxYear: 2009,
	}, "")
	if err != nil {
		t.Fatalf("CreateConfig failed: %v", err)
	}
	if created.ValidUntilTaxYear != nil {
		t.Errorf("expected open-ended version, got until=%d", *created.ValidUntilTaxYear)
	}

	got, err := env.configs.GetConfig(ctx, "freigrenze_sonstige_einkuenfte", 2023)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got.Value != "600" {
		t.Errorf("expected value 600, got %s", got.Value)
	}
}

func TestCreateConfigClosesOpenPredecessor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mustCreateConfig(t, env, "freigrenze_sonstige_einkuenfte", "600", 2009, nil)
	mustCreateConfig(t, env, "freigrenze_sonstige_einkuenfte", "1000", 2024, nil)

	// Old years still resolve to the closed predecessor.
	old, err := env.configs.GetConfig(ctx, "freigrenze_sonstige_einkuenfte", 2023)
	if err != nil {
		t.Fatalf("GetConfig 2023 failed: %v", err)
	}
	if old.Value != "600" {
		t.Errorf("2023 should resolve to 600, got %s", old.Value)
	}
	if old.ValidUntilTaxYear == nil || *old.ValidUntilTaxYear != 2024 {
		t.Errorf("predecessor window should be closed at 2024, got %v", old.ValidUntilTaxYear)
	}

	current, err := env.configs.GetConfig(ctx, "freigrenze_sonstige_einkuenfte", 2024)
	if err != nil {
		t.Fatalf("GetConfig 2024 failed: %v", err)
	}
	if current.Value != "1000" {
		t.Errorf("2024 should resolve to 1000, got %s", current.Value)
	}
}

func TestCreateConfigRejectsOverlap(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mustCreateConfig(t, env, "spekulationsfrist_jahre", "10", 2010, nil)

	// New version starting at or before the open predecessor's start.
	_, err := env.configs.CreateConfig(ctx, service.CreateConfigEntryRequest{
		Key:              "spekulationsfrist_jahre",
		DisplayName:      "Spekulationsfrist",
		Value:            "12",
		ValueType:        model.ValueTypeNumber,
		ValidFromTaxYear: 2010,
	}, "")
	if !errors.Is(err, repository.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// The stored version is untouched.
	got, err := env.configs.GetConfig(ctx, "spekulationsfrist_jahre", 2020)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got.Value != "10" {
		t.Errorf("expected value 10 after rejected overlap, got %s", got.Value)
	}
}

func TestCreateConfigValidatesValueAgainstType(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name      string
		value     string
		valueType string
	}{
		{"non numeric currency", "abc", model.ValueTypeCurrency},
		{"non numeric percentage", "15%", model.ValueTypePercentage},
		{"non boolean", "yes please", model.ValueTypeBoolean},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.configs.CreateConfig(ctx, service.CreateConfigEntryRequest{
				Key:              "some_key",
				DisplayName:      "Some key",
				Value:            tc.value,
				ValueType:        tc.valueType,
				ValidFromTaxYear: 2020,
			}, "")
			if !errors.Is(err, service.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestGetConfigUnknownKeyReturnsNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.configs.GetConfig(context.Background(), "nope", 2024)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetConfigReportsIntegrityOnDoubleCoverage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Bypass the service to plant two overlapping active entries.
	for _, value := range []string{"600", "1000"} {
		entry := model.ConfigEntry{
			Key:              "freigrenze_sonstige_einkuenfte",
			DisplayName:      "Freigrenze",
			Value:            value,
			ValueType:        model.ValueTypeCurrency,
			ValidFromTaxYear: 2009,
			IsActive:         true,
		}
		if err := env.configRepo.Create(ctx, &entry); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	_, err := env.configs.GetConfig(ctx, "freigrenze_sonstige_einkuenfte", 2020)
	if !errors.Is(err, repository.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestDeactivateConfigRemovesFromResolution(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mustCreateConfig(t, env, "afa_gebaeude_prozent", "2", 1925, nil)

	if _, err := env.configs.DeactivateConfig(ctx, "afa_gebaeude_prozent", 2020, ""); err != nil {
		t.Fatalf("DeactivateConfig failed: %v", err)
	}

	_, err := env.configs.GetConfig(ctx, "afa_gebaeude_prozent", 2020)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after deactivation, got %v", err)
	}

	// History remains visible.
	versions, err := env.configs.ListVersions(ctx, "afa_gebaeude_prozent")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 1 || versions[0].IsActive {
		t.Errorf("expected one inactive version in history, got %+v", versions)
	}
}

func TestCreateConfigWritesAuditLog(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mustCreateConfig(t, env, "freigrenze_sonstige_einkuenfte", "600", 2009, nil)

	logs, total, err := env.auditRepo.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("audit List failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 audit entry, got %d", total)
	}
	if logs[0].Action != model.ActionCreateConfigEntry {
		t.Errorf("expected action %s, got %s", model.ActionCreateConfigEntry, logs[0].Action)
	}
	if logs[0].EntityID != "freigrenze_sonstige_einkuenfte" {
		t.Errorf("unexpected audit entity id %s", logs[0].EntityID)
	}
}

func mustCreateConfig(t *testing.T, env *testEnv, key, value string, from int, until *int) {
	t.Helper()
	valueType := model.ValueTypeNumber
	_, err := env.configs.CreateConfig(context.Background(), service.CreateConfigEntryRequest{
		Key:               key,
		DisplayName:       key,
		Value:             value,
		ValueType:         valueType,
		ValidFromTaxYear:  from,
		ValidUntilTaxYear: until,
	}, "")
	if err != nil {
		t.Fatalf("CreateConfig %s failed: %v", key, err)
	}
}
