// Package threshold implements the three tax threshold tests as pure
// functions. All constants (Freigrenze, limit percentage, holding period)
// arrive as parameters resolved by the caller from the config store, keeping
// the math deterministic and unit-testable. Inputs are validated by the
// caller before evaluation; these functions never fail on well-formed input.
package threshold

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckResult is the shape shared by all threshold tests.
type CheckResult struct {
	Applies    bool            `json:"applies"`
	Total      decimal.Decimal `json:"total"`
	Limit      decimal.Decimal `json:"limit"`
	ExceededBy decimal.Decimal `json:"exceeded_by"`
}

// MinorIncomeResult describes the Freigrenze cliff for minor other income.
type MinorIncomeResult struct {
	CheckResult
	IsExempt bool            `json:"is_exempt"`
	Taxable  decimal.Decimal `json:"taxable"`
}

// MinorIncomeExemption applies the all-or-nothing Freigrenze cliff:
// staying at or under the limit leaves the income untaxed, exceeding it by
// any amount makes the ENTIRE income taxable, not just the excess.
func MinorIncomeExemption(totalOtherIncome, freigrenze decimal.Decimal) MinorIncomeResult {
	applies := totalOtherIncome.GreaterThan(freigrenze)

	taxable := decimal.Zero
	if applies {
		taxable = totalOtherIncome
	}

	return MinorIncomeResult{
		CheckResult: CheckResult{
			Applies:    applies,
			Total:      totalOtherIncome,
			Limit:      freigrenze,
			ExceededBy: maxZero(totalOtherIncome.Sub(freigrenze)),
		},
		IsExempt: !applies,
		Taxable:  taxable,
	}
}

// RenovationResult describes the renovation-expense percentage test.
type RenovationResult struct {
	CheckResult
}

// RenovationLimit checks accumulated renovation expenses against a
// percentage of the building acquisition value. A total exactly equal to the
// limit does not exceed it.
func RenovationLimit(newExpense, priorExpenses, buildingValue, limitPercent decimal.Decimal) RenovationResult {
	limit := buildingValue.Mul(limitPercent).Div(decimal.NewFromInt(100))
	total := priorExpenses.Add(newExpense)

	return RenovationResult{
		CheckResult: CheckResult{
			Applies:    total.GreaterThan(limit),
			Total:      total,
			Limit:      limit,
			ExceededBy: maxZero(total.Sub(limit)),
		},
	}
}

// Speculation status tiers. Warning covers holdings within the warning
// window below the threshold, so the UI can flag sales that are close to
// losing the exemption.
const (
	SpeculationExempt  = "exempt"
	SpeculationWarning = "warning"
	SpeculationTaxable = "taxable"
)

const daysPerYear = 365.25

// SpeculationResult classifies a property sale against the holding-period
// exemption.
type SpeculationResult struct {
	YearsHeld float64 `json:"years_held"`
	Exempt    bool    `json:"exempt"`
	Status    string  `json:"status"`
}

// SpeculationExemption computes the fractional holding period and the
// three-tier status. Tier boundaries compare calendar dates so they stay
// inclusive on the exempt-favoring side: a sale exactly yearsThreshold
// calendar years after acquisition is exempt, and exactly at the warning
// boundary is a warning. Self-used property is always exempt regardless of
// holding period.
func SpeculationExemption(acquisition, sale time.Time, yearsThreshold, warningWindowYears int, isSelfUsed bool) SpeculationResult {
	yearsHeld := sale.Sub(acquisition).Hours() / 24 / daysPerYear

	exempt := isSelfUsed || !sale.Before(acquisition.AddDate(yearsThreshold, 0, 0))

	status := SpeculationTaxable
	switch {
	case exempt:
		status = SpeculationExempt
	case !sale.Before(acquisition.AddDate(yearsThreshold-warningWindowYears, 0, 0)):
		status = SpeculationWarning
	}

	return SpeculationResult{
		YearsHeld: yearsHeld,
		Exempt:    exempt,
		Status:    status,
	}
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
