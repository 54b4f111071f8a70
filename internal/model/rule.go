package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RuleType enum constants
const (
	RuleTypeCategorization = "categorization"
	RuleTypeThreshold      = "threshold"
	RuleTypeExemption      = "exemption"
	RuleTypeOther          = "other"
)

// Rule is one version of a categorization/threshold/exemption rule.
// RuleCode is the stable business identifier shared by all versions;
// active versions of the same code must have non-overlapping windows.
type Rule struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RuleCode          string    `gorm:"type:varchar(100);not null;index" json:"rule_code"`
	DisplayName       string    `gorm:"type:varchar(255);not null" json:"display_name"`
	RuleType          string    `gorm:"type:varchar(20);not null;index" json:"rule_type"` // categorization, threshold, exemption, other
	Body              string    `gorm:"type:jsonb;not null" json:"body"`                  // typed per RuleType, see RuleBody
	ValidFromTaxYear  int       `gorm:"not null;index" json:"valid_from_tax_year"`        // inclusive
	ValidUntilTaxYear *int      `gorm:"index" json:"valid_until_tax_year"`                // exclusive, nullable
	IsActive          bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CoversYear reports whether the rule version's window contains the tax year.
func (r *Rule) CoversYear(taxYear int) bool {
	if taxYear < r.ValidFromTaxYear {
		return false
	}
	return r.ValidUntilTaxYear == nil || taxYear < *r.ValidUntilTaxYear
}

// RuleCondition is a single field comparison inside a categorization rule.
type RuleCondition struct {
	Field    string `json:"field"`    // input field name, e.g. "description", "amount"
	Operator string `json:"operator"` // eq, neq, contains, gt, gte, lt, lte
	Value    string `json:"value"`
}

// CategorizationBody assigns a cost category when all conditions match.
type CategorizationBody struct {
	Conditions []RuleCondition `json:"conditions"`
	CategoryID string          `json:"category_id"`
}

// ThresholdBody compares an accumulated amount against a configured limit.
// Basis "absolute" reads the limit directly from the config entry;
// "percent_of_base" treats the config value as a percentage of a base amount
// supplied at evaluation time.
type ThresholdBody struct {
	LimitConfigKey string `json:"limit_config_key"`
	Basis          string `json:"basis"`          // absolute, percent_of_base
	CliffTaxation  bool   `json:"cliff_taxation"` // exceeding makes the whole amount taxable, not just the excess
}

// ExemptionBody grants a holding-period exemption, optionally short-circuited
// by self use of the property.
type ExemptionBody struct {
	HoldingPeriodConfigKey string `json:"holding_period_config_key"`
	SelfUseExempts         bool   `json:"self_use_exempts"`
	WarningWindowYears     int    `json:"warning_window_years"`
}

// OtherBody is a free-form note for rules evaluated outside this engine.
type OtherBody struct {
	Note string `json:"note"`
}

// RuleBody is the tagged variant behind Rule.Body. Exactly the variant
// matching the rule type must be set; anything else is rejected at write time.
type RuleBody struct {
	Categorization *CategorizationBody `json:"categorization,omitempty"`
	Threshold      *ThresholdBody      `json:"threshold,omitempty"`
	Exemption      *ExemptionBody      `json:"exemption,omitempty"`
	Other          *OtherBody          `json:"other,omitempty"`
}

var conditionOperators = map[string]bool{
	"eq": true, "neq": true, "contains": true,
	"gt": true, "gte": true, "lt": true, "lte": true,
}

// ParseRuleBody decodes and validates a rule body against its rule type.
// Unknown fields and mismatched variants are write-time errors so malformed
// rules never reach the evaluator.
func ParseRuleBody(ruleType, raw string) (*RuleBody, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var body RuleBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed rule body: %w", err)
	}

	variants := 0
	for _, set := range []bool{body.Categorization != nil, body.Threshold != nil, body.Exemption != nil, body.Other != nil} {
		if set {
			variants++
		}
	}
	if variants != 1 {
		return nil, fmt.Errorf("rule body must contain exactly one variant, found %d", variants)
	}

	switch ruleType {
	case RuleTypeCategorization:
		if body.Categorization == nil {
			return nil, fmt.Errorf("rule type %s requires a categorization body", ruleType)
		}
		if body.Categorization.CategoryID == "" {
			return nil, fmt.Errorf("categorization body missing category_id")
		}
		if len(body.Categorization.Conditions) == 0 {
			return nil, fmt.Errorf("categorization body requires at least one condition")
		}
		for i, c := range body.Categorization.Conditions {
			if c.Field == "" {
				return nil, fmt.Errorf("condition %d missing field", i)
			}
			if !conditionOperators[c.Operator] {
				return nil, fmt.Errorf("condition %d has unknown operator %q", i, c.Operator)
			}
		}
	case RuleTypeThreshold:
		if body.Threshold == nil {
			return nil, fmt.Errorf("rule type %s requires a threshold body", ruleType)
		}
		if body.Threshold.LimitConfigKey == "" {
			return nil, fmt.Errorf("threshold body missing limit_config_key")
		}
		if body.Threshold.Basis != "absolute" && body.Threshold.Basis != "percent_of_base" {
			return nil, fmt.Errorf("threshold body has unknown basis %q", body.Threshold.Basis)
		}
	case RuleTypeExemption:
		if body.Exemption == nil {
			return nil, fmt.Errorf("rule type %s requires an exemption body", ruleType)
		}
		if body.Exemption.HoldingPeriodConfigKey == "" {
			return nil, fmt.Errorf("exemption body missing holding_period_config_key")
		}
		if body.Exemption.WarningWindowYears < 0 {
			return nil, fmt.Errorf("exemption body has negative warning window")
		}
	case RuleTypeOther:
		if body.Other == nil {
			return nil, fmt.Errorf("rule type %s requires an other body", ruleType)
		}
	default:
		return nil, fmt.Errorf("unknown rule type %q", ruleType)
	}

	return &body, nil
}
