package service

import (
	"context"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
)

// --- DTOs ---

type CreateRuleRequest struct {
	RuleCode          string `json:"rule_code" binding:"required"`
	DisplayName       string `json:"display_name" binding:"required"`
	RuleType          string `json:"rule_type" binding:"required,oneof=categorization threshold exemption other"`
	Body              string `json:"body" binding:"required"` // JSON, validated against the rule type
	ValidFromTaxYear  int    `json:"valid_from_tax_year" binding:"required"`
	ValidUntilTaxYear *int   `json:"valid_until_tax_year"`
}

type RuleResponse struct {
	ID                string `json:"id"`
	RuleCode          string `json:"rule_code"`
	DisplayName       string `json:"display_name"`
	RuleType          string `json:"rule_type"`
	Body              string `json:"body"`
	ValidFromTaxYear  int    `json:"valid_from_tax_year"`
	ValidUntilTaxYear *int   `json:"valid_until_tax_year"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
}

// --- Interface ---

type RuleService interface {
	GetRule(ctx context.Context, ruleCode string, taxYear int) (RuleResponse, error)
	CreateRuleVersion(ctx context.Context, req CreateRuleRequest, userID string) (RuleResponse, error)
	DeactivateRule(ctx context.Context, ruleCode string, taxYear int, userID string) (RuleResponse, error)
	ListActiveRules(ctx context.Context, ruleType string, taxYear int) ([]RuleResponse, error)
	ListRules(ctx context.Context, page, limit int) ([]RuleResponse, int64, error)
	ListVersions(ctx context.Context, ruleCode string) ([]RuleResponse, error)
}

type ruleService struct {
	repo      repository.RuleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewRuleService(repo repository.RuleRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) RuleService {
	return &ruleService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

// --- Implementation ---

func (s *ruleService) GetRule(ctx context.Context, ruleCode string, taxYear int) (RuleResponse, error) {
	rule, err := s.resolveRule(ctx, ruleCode, taxYear)
	if err != nil {
		return RuleResponse{}, err
	}
	return toRuleResponse(*rule), nil
}

func (s *ruleService) resolveRule(ctx context.Context, ruleCode string, taxYear int) (*model.Rule, error) {
	rules, err := s.repo.FindActiveForYear(ctx, ruleCode, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rule '%s': %w", ruleCode, err)
	}
	switch len(rules) {
	case 0:
		return nil, fmt.Errorf("%w: no active rule '%s' for tax year %d", repository.ErrNotFound, ruleCode, taxYear)
	case 1:
		return &rules[0], nil
	default:
		return nil, fmt.Errorf("%w: %d active versions of rule '%s' cover tax year %d",
			repository.ErrIntegrity, len(rules), ruleCode, taxYear)
	}
}

// CreateRuleVersion inserts a new version of the rule and closes the open
// predecessor window in the same transaction, so a reader never sees both
// versions active for one tax year.
func (s *ruleService) CreateRuleVersion(ctx context.Context, req CreateRuleRequest, userID string) (RuleResponse, error) {
	var rule *model.Rule

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := applyRuleVersion(txCtx, s.repo, req)
		if err != nil {
			return err
		}
		rule = created

		audit := auditEntry(userID, model.ActionCreateRuleVersion, req.RuleCode, req.DisplayName, req)
		if err := s.auditRepo.Create(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return RuleResponse{}, err
	}

	return toRuleResponse(*rule), nil
}

func (s *ruleService) DeactivateRule(ctx context.Context, ruleCode string, taxYear int, userID string) (RuleResponse, error) {
	rule, err := s.resolveRule(ctx, ruleCode, taxYear)
	if err != nil {
		return RuleResponse{}, err
	}

	rule.IsActive = false
	if err := s.repo.Save(ctx, rule); err != nil {
		return RuleResponse{}, fmt.Errorf("failed to deactivate rule '%s': %w", ruleCode, err)
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionDeactivateRule, ruleCode, rule.DisplayName,
		map[string]interface{}{"tax_year": taxYear, "rule_id": rule.ID.String()})

	return toRuleResponse(*rule), nil
}

func (s *ruleService) ListActiveRules(ctx context.Context, ruleType string, taxYear int) ([]RuleResponse, error) {
	if ruleType != "" {
		switch ruleType {
		case model.RuleTypeCategorization, model.RuleTypeThreshold, model.RuleTypeExemption, model.RuleTypeOther:
		default:
			return nil, fmt.Errorf("%w: unknown rule type %q", ErrValidation, ruleType)
		}
	}

	rules, err := s.repo.ListActive(ctx, ruleType, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	res := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toRuleResponse(r))
	}
	return res, nil
}

func (s *ruleService) ListRules(ctx context.Context, page, limit int) ([]RuleResponse, int64, error) {
	rules, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rules: %w", err)
	}

	res := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toRuleResponse(r))
	}
	return res, total, nil
}

func (s *ruleService) ListVersions(ctx context.Context, ruleCode string) ([]RuleResponse, error) {
	rules, err := s.repo.FindByCode(ctx, ruleCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule versions: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule '%s'", repository.ErrNotFound, ruleCode)
	}

	res := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toRuleResponse(r))
	}
	return res, nil
}

// --- Helpers ---

func toRuleResponse(r model.Rule) RuleResponse {
	return RuleResponse{
		ID:                r.ID.String(),
		RuleCode:          r.RuleCode,
		DisplayName:       r.DisplayName,
		RuleType:          r.RuleType,
		Body:              r.Body,
		ValidFromTaxYear:  r.ValidFromTaxYear,
		ValidUntilTaxYear: r.ValidUntilTaxYear,
		IsActive:          r.IsActive,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}
