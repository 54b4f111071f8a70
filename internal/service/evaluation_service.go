package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/threshold"
	"taxengine/pkg/metrics"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// EvaluateRuleRequest runs one rule version against a sample input. The
// input fields a rule reads depend on its type: categorization rules read
// the fields named in their conditions, threshold rules read "amount" and
// optionally "prior_amount" and "base_amount", exemption rules read
// "acquisition_date", "sale_date" and "is_self_used".
type EvaluateRuleRequest struct {
	RuleCode string            `json:"rule_code" binding:"required"`
	TaxYear  int               `json:"tax_year" binding:"required"`
	Input    map[string]string `json:"input"`
}

type TraceStep struct {
	Description string `json:"description"`
	Detail      string `json:"detail,omitempty"`
}

type ResolvedConfigRef struct {
	Key           string `json:"key"`
	Value         string `json:"value"`
	ConfigEntryID string `json:"config_entry_id"`
}

// EvaluationTrace is the full evaluation record: which rule version fired,
// which config entries it resolved, every step taken, and the outcome.
type EvaluationTrace struct {
	Rule    RuleResponse        `json:"rule"`
	TaxYear int                 `json:"tax_year"`
	Configs []ResolvedConfigRef `json:"resolved_configs"`
	Steps   []TraceStep         `json:"steps"`
	Outcome string              `json:"outcome"`
	Details map[string]string   `json:"details,omitempty"`
}

// Evaluation outcomes per rule type.
const (
	OutcomeMatched      = "matched"
	OutcomeNotMatched   = "not_matched"
	OutcomeExceeded     = "limit_exceeded"
	OutcomeWithinLimit  = "within_limit"
	OutcomeExempt       = "exempt"
	OutcomeWarning      = "warning"
	OutcomeTaxable      = "taxable"
	OutcomeNotEvaluated = "not_evaluated"
)

// --- Interface ---

// EvaluationService is the dry-run harness: it resolves a rule version and
// its configs for a tax year and evaluates it against a sample input without
// writing anything.
type EvaluationService interface {
	Evaluate(ctx context.Context, req EvaluateRuleRequest) (EvaluationTrace, error)
}

type evaluationService struct {
	ruleService   RuleService
	configService ConfigService
}

func NewEvaluationService(ruleService RuleService, configService ConfigService) EvaluationService {
	return &evaluationService{ruleService: ruleService, configService: configService}
}

// --- Implementation ---

func (s *evaluationService) Evaluate(ctx context.Context, req EvaluateRuleRequest) (EvaluationTrace, error) {
	rule, err := s.ruleService.GetRule(ctx, req.RuleCode, req.TaxYear)
	if err != nil {
		return EvaluationTrace{}, err
	}

	body, err := model.ParseRuleBody(rule.RuleType, rule.Body)
	if err != nil {
		// Bodies are validated at write time, so this indicates store corruption.
		return EvaluationTrace{}, fmt.Errorf("stored rule body is invalid: %w", err)
	}

	trace := EvaluationTrace{
		Rule:    rule,
		TaxYear: req.TaxYear,
		Details: map[string]string{},
	}
	trace.step("resolved rule version", fmt.Sprintf("rule '%s' version %s valid from %d", rule.RuleCode, rule.ID, rule.ValidFromTaxYear))

	switch rule.RuleType {
	case model.RuleTypeCategorization:
		err = s.evaluateCategorization(&trace, body.Categorization, req.Input)
	case model.RuleTypeThreshold:
		err = s.evaluateThreshold(ctx, &trace, body.Threshold, req)
	case model.RuleTypeExemption:
		err = s.evaluateExemption(ctx, &trace, body.Exemption, req)
	case model.RuleTypeOther:
		trace.step("skipped evaluation", "rule type 'other' is not evaluated by this engine")
		trace.Outcome = OutcomeNotEvaluated
		trace.Details["note"] = body.Other.Note
	}
	if err != nil {
		return EvaluationTrace{}, err
	}

	metrics.RuleEvaluations.WithLabelValues(rule.RuleType, trace.Outcome).Inc()
	return trace, nil
}

func (s *evaluationService) evaluateCategorization(trace *EvaluationTrace, body *model.CategorizationBody, input map[string]string) error {
	matched := true
	for i, cond := range body.Conditions {
		value, ok := input[cond.Field]
		if !ok {
			trace.step(fmt.Sprintf("condition %d failed", i),
				fmt.Sprintf("input has no field %q", cond.Field))
			matched = false
			break
		}

		hit, err := evaluateCondition(cond, value)
		if err != nil {
			return err
		}
		trace.step(fmt.Sprintf("condition %d: %s %s %q", i, cond.Field, cond.Operator, cond.Value),
			fmt.Sprintf("input %q, matched=%t", value, hit))
		if !hit {
			matched = false
			break
		}
	}

	if matched {
		trace.Outcome = OutcomeMatched
		trace.Details["category_id"] = body.CategoryID
		trace.step("assigned category", body.CategoryID)
	} else {
		trace.Outcome = OutcomeNotMatched
	}
	return nil
}

func (s *evaluationService) evaluateThreshold(ctx context.Context, trace *EvaluationTrace, body *model.ThresholdBody, req EvaluateRuleRequest) error {
	amount, err := requireAmount(req.Input, "amount")
	if err != nil {
		return err
	}
	prior := decimal.Zero
	if raw, ok := req.Input["prior_amount"]; ok && raw != "" {
		if prior, err = parseNonNegativeAmount("prior_amount", raw); err != nil {
			return err
		}
	}

	configValue, entry, err := s.configService.ResolveDecimal(ctx, body.LimitConfigKey, req.TaxYear)
	if err != nil {
		return err
	}
	trace.Configs = append(trace.Configs, ResolvedConfigRef{Key: body.LimitConfigKey, Value: configValue.String(), ConfigEntryID: entry.ID.String()})
	trace.step("resolved limit config", fmt.Sprintf("'%s' = %s for tax year %d", body.LimitConfigKey, configValue, req.TaxYear))

	var result threshold.CheckResult
	switch body.Basis {
	case "absolute":
		check := threshold.MinorIncomeExemption(prior.Add(amount), configValue)
		result = check.CheckResult
		if body.CliffTaxation {
			trace.Details["taxable"] = check.Taxable.String()
		}
	case "percent_of_base":
		base, err := requireAmount(req.Input, "base_amount")
		if err != nil {
			return err
		}
		check := threshold.RenovationLimit(amount, prior, base, configValue)
		result = check.CheckResult
		trace.step("computed limit from base", fmt.Sprintf("%s%% of %s = %s", configValue, base, result.Limit))
	}

	trace.step("compared total against limit",
		fmt.Sprintf("total %s, limit %s, exceeded by %s", result.Total, result.Limit, result.ExceededBy))
	trace.Details["total"] = result.Total.String()
	trace.Details["limit"] = result.Limit.String()
	trace.Details["exceeded_by"] = result.ExceededBy.String()

	if result.Applies {
		trace.Outcome = OutcomeExceeded
	} else {
		trace.Outcome = OutcomeWithinLimit
	}
	return nil
}

func (s *evaluationService) evaluateExemption(ctx context.Context, trace *EvaluationTrace, body *model.ExemptionBody, req EvaluateRuleRequest) error {
	acquisition, err := requireDate(req.Input, "acquisition_date")
	if err != nil {
		return err
	}
	sale, err := requireDate(req.Input, "sale_date")
	if err != nil {
		return err
	}
	if sale.Before(acquisition) {
		return fmt.Errorf("%w: sale_date precedes acquisition_date", ErrValidation)
	}
	isSelfUsed := body.SelfUseExempts && strings.EqualFold(req.Input["is_self_used"], "true")

	yearsValue, entry, err := s.configService.ResolveDecimal(ctx, body.HoldingPeriodConfigKey, req.TaxYear)
	if err != nil {
		return err
	}
	trace.Configs = append(trace.Configs, ResolvedConfigRef{Key: body.HoldingPeriodConfigKey, Value: yearsValue.String(), ConfigEntryID: entry.ID.String()})
	trace.step("resolved holding period config", fmt.Sprintf("'%s' = %s years", body.HoldingPeriodConfigKey, yearsValue))

	result := threshold.SpeculationExemption(acquisition, sale, int(yearsValue.IntPart()), body.WarningWindowYears, isSelfUsed)
	trace.step("classified holding period",
		fmt.Sprintf("held %.2f years, self used %t, status %s", result.YearsHeld, isSelfUsed, result.Status))
	trace.Details["years_held"] = fmt.Sprintf("%.4f", result.YearsHeld)

	switch result.Status {
	case threshold.SpeculationExempt:
		trace.Outcome = OutcomeExempt
	case threshold.SpeculationWarning:
		trace.Outcome = OutcomeWarning
	default:
		trace.Outcome = OutcomeTaxable
	}
	return nil
}

// --- Helpers ---

func (t *EvaluationTrace) step(description, detail string) {
	t.Steps = append(t.Steps, TraceStep{Description: description, Detail: detail})
}

func evaluateCondition(cond model.RuleCondition, value string) (bool, error) {
	switch cond.Operator {
	case "eq":
		return strings.EqualFold(value, cond.Value), nil
	case "neq":
		return !strings.EqualFold(value, cond.Value), nil
	case "contains":
		return strings.Contains(strings.ToLower(value), strings.ToLower(cond.Value)), nil
	}

	// Remaining operators compare numerically.
	left, err := decimal.NewFromString(value)
	if err != nil {
		return false, fmt.Errorf("%w: input field %q value %q is not numeric", ErrValidation, cond.Field, value)
	}
	right, err := decimal.NewFromString(cond.Value)
	if err != nil {
		return false, fmt.Errorf("%w: condition value %q is not numeric", ErrValidation, cond.Value)
	}

	switch cond.Operator {
	case "gt":
		return left.GreaterThan(right), nil
	case "gte":
		return left.GreaterThanOrEqual(right), nil
	case "lt":
		return left.LessThan(right), nil
	case "lte":
		return left.LessThanOrEqual(right), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrValidation, cond.Operator)
	}
}

func requireAmount(input map[string]string, field string) (decimal.Decimal, error) {
	raw, ok := input[field]
	if !ok || raw == "" {
		return decimal.Zero, fmt.Errorf("%w: input field %q is required", ErrValidation, field)
	}
	return parseNonNegativeAmount(field, raw)
}

func requireDate(input map[string]string, field string) (time.Time, error) {
	raw, ok := input[field]
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("%w: input field %q is required", ErrValidation, field)
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: input field %q must be YYYY-MM-DD", ErrValidation, field)
	}
	return parsed, nil
}
