package service_test

import (
	"context"
	"errors"
	"testing"

	"taxengine/internal/repository"
	"taxengine/internal/service"
)

func newEvaluationEnv(t *testing.T) (*testEnv, service.EvaluationService) {
	t.Helper()
	env := newTestEnv()
	migration := service.NewMigrationService(env.configRepo, env.ruleRepo, env.categoryRepo, env.auditRepo, env.txManager)
	if _, err := migration.Migrate(context.Background(), ""); err != nil {
		t.Fatalf("seed migration failed: %v", err)
	}
	return env, service.NewEvaluationService(env.rules, env.configs)
}

func TestEvaluateCategorizationRule(t *testing.T) {
	_, svc := newEvaluationEnv(t)
	ctx := context.Background()

	trace, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "categorize_repairs",
		TaxYear:  2024,
		Input:    map[string]string{"description": "Reparatur Heizungsanlage"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if trace.Outcome != service.OutcomeMatched {
		t.Fatalf("expected matched, got %s", trace.Outcome)
	}
	if trace.Details["category_id"] != "maintenance_repairs" {
		t.Errorf("expected category maintenance_repairs, got %s", trace.Details["category_id"])
	}
	if len(trace.Steps) == 0 {
		t.Error("expected a non-empty trace")
	}

	miss, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "categorize_repairs",
		TaxYear:  2024,
		Input:    map[string]string{"description": "Versicherungsprämie"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if miss.Outcome != service.OutcomeNotMatched {
		t.Errorf("expected not_matched, got %s", miss.Outcome)
	}
}

func TestEvaluateThresholdRuleResolvesConfigPerYear(t *testing.T) {
	_, svc := newEvaluationEnv(t)
	ctx := context.Background()

	// 800 euros exceeds the 600 limit of 2023 but not the 1000 limit of 2024.
	exceeded, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "minor_income_freigrenze",
		TaxYear:  2023,
		Input:    map[string]string{"amount": "800"},
	})
	if err != nil {
		t.Fatalf("Evaluate 2023 failed: %v", err)
	}
	if exceeded.Outcome != service.OutcomeExceeded {
		t.Errorf("2023: expected limit_exceeded, got %s", exceeded.Outcome)
	}
	if len(exceeded.Configs) != 1 || exceeded.Configs[0].Value != "600" {
		t.Errorf("2023: expected resolved config 600, got %+v", exceeded.Configs)
	}

	within, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "minor_income_freigrenze",
		TaxYear:  2024,
		Input:    map[string]string{"amount": "800"},
	})
	if err != nil {
		t.Fatalf("Evaluate 2024 failed: %v", err)
	}
	if within.Outcome != service.OutcomeWithinLimit {
		t.Errorf("2024: expected within_limit, got %s", within.Outcome)
	}
	if len(within.Configs) != 1 || within.Configs[0].Value != "1000" {
		t.Errorf("2024: expected resolved config 1000, got %+v", within.Configs)
	}
}

func TestEvaluatePercentOfBaseThreshold(t *testing.T) {
	_, svc := newEvaluationEnv(t)
	ctx := context.Background()

	trace, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "renovation_acquisition_limit",
		TaxYear:  2024,
		Input: map[string]string{
			"amount":       "12000",
			"prior_amount": "5000",
			"base_amount":  "100000",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if trace.Outcome != service.OutcomeExceeded {
		t.Fatalf("expected limit_exceeded, got %s", trace.Outcome)
	}
	if trace.Details["limit"] != "15000" {
		t.Errorf("expected limit 15000, got %s", trace.Details["limit"])
	}
	if trace.Details["exceeded_by"] != "2000" {
		t.Errorf("expected exceeded_by 2000, got %s", trace.Details["exceeded_by"])
	}

	// The base amount is mandatory for percent_of_base rules.
	_, err = svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "renovation_acquisition_limit",
		TaxYear:  2024,
		Input:    map[string]string{"amount": "12000"},
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("missing base_amount: expected ErrValidation, got %v", err)
	}
}

func TestEvaluateExemptionRule(t *testing.T) {
	_, svc := newEvaluationEnv(t)
	ctx := context.Background()

	trace, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "speculation_holding_period",
		TaxYear:  2024,
		Input: map[string]string{
			"acquisition_date": "2010-03-01",
			"sale_date":        "2024-03-01",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if trace.Outcome != service.OutcomeExempt {
		t.Errorf("14 year hold: expected exempt, got %s", trace.Outcome)
	}

	selfUsed, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "speculation_holding_period",
		TaxYear:  2024,
		Input: map[string]string{
			"acquisition_date": "2023-01-01",
			"sale_date":        "2024-01-01",
			"is_self_used":     "true",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if selfUsed.Outcome != service.OutcomeExempt {
		t.Errorf("self use: expected exempt, got %s", selfUsed.Outcome)
	}
}

func TestEvaluateIsReadOnly(t *testing.T) {
	env, svc := newEvaluationEnv(t)
	ctx := context.Background()

	_, rulesBefore, err := env.rules.ListRules(ctx, 1, 100)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	_, configsBefore, err := env.configs.ListConfigs(ctx, 1, 100)
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}

	if _, err := svc.Evaluate(ctx, service.EvaluateRuleRequest{
		RuleCode: "minor_income_freigrenze",
		TaxYear:  2024,
		Input:    map[string]string{"amount": "800"},
	}); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	_, rulesAfter, _ := env.rules.ListRules(ctx, 1, 100)
	_, configsAfter, _ := env.configs.ListConfigs(ctx, 1, 100)
	if rulesAfter != rulesBefore || configsAfter != configsBefore {
		t.Error("evaluation must not write to the stores")
	}
}

func TestEvaluateUnknownRule(t *testing.T) {
	_, svc := newEvaluationEnv(t)

	_, err := svc.Evaluate(context.Background(), service.EvaluateRuleRequest{
		RuleCode: "no_such_rule",
		TaxYear:  2024,
		Input:    map[string]string{},
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
