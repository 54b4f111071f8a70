package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrValidation rejects malformed input before any store access.
	ErrValidation = errors.New("validation error")
	// ErrInvalidTransition rejects an illegal law-update state change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// isNotFound matches lookup misses from both the gorm and the in-memory
// repositories.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repository.ErrNotFound)
}

// applyConfigVersion inserts a new config entry version. If an active
// open-ended predecessor exists it is closed at the new version's start year
// first; both writes must run inside the caller's transaction. Any remaining
// window overlap is rejected, never merged.
func applyConfigVersion(ctx context.Context, repo repository.ConfigEntryRepository, req CreateConfigEntryRequest) (*model.ConfigEntry, error) {
	if err := validateConfigRequest(req); err != nil {
		return nil, err
	}

	open, err := repo.FindOpenVersion(ctx, req.Key)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up open config version: %w", err)
	}
	if err == nil {
		if open.ValidFromTaxYear >= req.ValidFromTaxYear {
			return nil, fmt.Errorf("%w: config '%s' already has an active version from tax year %d",
				repository.ErrOverlap, req.Key, open.ValidFromTaxYear)
		}
		until := req.ValidFromTaxYear
		open.ValidUntilTaxYear = &until
		if err := repo.Save(ctx, open); err != nil {
			return nil, fmt.Errorf("failed to close predecessor config version: %w", err)
		}
	}

	count, err := repo.CountOverlapping(ctx, req.Key, req.ValidFromTaxYear, req.ValidUntilTaxYear, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check config overlap: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: config '%s' has an active entry overlapping tax years", repository.ErrOverlap, req.Key)
	}

	entry := model.ConfigEntry{
		Key:               req.Key,
		Category:          req.Category,
		DisplayName:       req.DisplayName,
		Value:             req.Value,
		ValueType:         req.ValueType,
		ValidFromTaxYear:  req.ValidFromTaxYear,
		ValidUntilTaxYear: req.ValidUntilTaxYear,
		IsActive:          true,
	}
	if err := repo.Create(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to create config entry: %w", err)
	}
	return &entry, nil
}

// applyRuleVersion inserts a new rule version, closing an open-ended
// predecessor with the same rule code inside the caller's transaction.
func applyRuleVersion(ctx context.Context, repo repository.RuleRepository, req CreateRuleRequest) (*model.Rule, error) {
	if err := validateRuleRequest(req); err != nil {
		return nil, err
	}

	open, err := repo.FindOpenVersion(ctx, req.RuleCode)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up open rule version: %w", err)
	}
	if err == nil {
		if open.ValidFromTaxYear >= req.ValidFromTaxYear {
			return nil, fmt.Errorf("%w: rule '%s' already has an active version from tax year %d",
				repository.ErrOverlap, req.RuleCode, open.ValidFromTaxYear)
		}
		until := req.ValidFromTaxYear
		open.ValidUntilTaxYear = &until
		if err := repo.Save(ctx, open); err != nil {
			return nil, fmt.Errorf("failed to close predecessor rule version: %w", err)
		}
	}

	count, err := repo.CountOverlapping(ctx, req.RuleCode, req.ValidFromTaxYear, req.ValidUntilTaxYear, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check rule overlap: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: rule '%s' has an active version overlapping tax years", repository.ErrOverlap, req.RuleCode)
	}

	rule := model.Rule{
		RuleCode:          req.RuleCode,
		DisplayName:       req.DisplayName,
		RuleType:          req.RuleType,
		Body:              req.Body,
		ValidFromTaxYear:  req.ValidFromTaxYear,
		ValidUntilTaxYear: req.ValidUntilTaxYear,
		IsActive:          true,
	}
	if err := repo.Create(ctx, &rule); err != nil {
		return nil, fmt.Errorf("failed to create rule version: %w", err)
	}
	return &rule, nil
}

func validateConfigRequest(req CreateConfigEntryRequest) error {
	if !model.ValidValueType(req.ValueType) {
		return fmt.Errorf("%w: unknown value type %q", ErrValidation, req.ValueType)
	}
	switch req.ValueType {
	case model.ValueTypeNumber, model.ValueTypePercentage, model.ValueTypeCurrency:
		if _, err := decimal.NewFromString(req.Value); err != nil {
			return fmt.Errorf("%w: value %q is not numeric", ErrValidation, req.Value)
		}
	case model.ValueTypeBoolean:
		if _, err := strconv.ParseBool(req.Value); err != nil {
			return fmt.Errorf("%w: value %q is not boolean", ErrValidation, req.Value)
		}
	}
	return validateWindow(req.ValidFromTaxYear, req.ValidUntilTaxYear)
}

func validateRuleRequest(req CreateRuleRequest) error {
	if _, err := model.ParseRuleBody(req.RuleType, req.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return validateWindow(req.ValidFromTaxYear, req.ValidUntilTaxYear)
}

func validateWindow(from int, until *int) error {
	if from < 1900 || from > 2200 {
		return fmt.Errorf("%w: implausible valid_from_tax_year %d", ErrValidation, from)
	}
	if until != nil && *until <= from {
		return fmt.Errorf("%w: valid_until_tax_year %d must be after valid_from_tax_year %d", ErrValidation, *until, from)
	}
	return nil
}

// auditEntry builds an audit row; userID is the JWT subject, blank for
// automated runs.
func auditEntry(userID, action, entityID, entityName string, details interface{}) *model.AuditLog {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}
	return &entry
}

// writeAudit is best-effort: a failing audit insert never fails the operation.
func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) {
	_ = repo.Create(ctx, auditEntry(userID, action, entityID, entityName, details))
}
