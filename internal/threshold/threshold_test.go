package threshold

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestMinorIncomeExemption_CliffJustOverLimit(t *testing.T) {
	res := MinorIncomeExemption(d("600.01"), d("600"))

	if !res.Applies {
		t.Errorf("expected applies=true for 600.01 over 600")
	}
	if res.IsExempt {
		t.Errorf("expected not exempt")
	}
	// The entire amount becomes taxable, not just the excess cent
	if !res.Taxable.Equal(d("600.01")) {
		t.Errorf("expected taxable=600.01, got %s", res.Taxable)
	}
	if !res.ExceededBy.Equal(d("0.01")) {
		t.Errorf("expected exceeded_by=0.01, got %s", res.ExceededBy)
	}
}

func TestMinorIncomeExemption_ExactlyAtLimit(t *testing.T) {
	res := MinorIncomeExemption(d("600.00"), d("600"))

	if res.Applies {
		t.Errorf("expected applies=false at exactly the Freigrenze")
	}
	if !res.IsExempt {
		t.Errorf("expected exempt at exactly the Freigrenze")
	}
	if !res.Taxable.IsZero() {
		t.Errorf("expected taxable=0, got %s", res.Taxable)
	}
}

func TestRenovationLimit(t *testing.T) {
	tests := []struct {
		name         string
		newExpense   string
		prior        string
		building     string
		percent      string
		wantLimit    string
		wantTotal    string
		wantApplies  bool
		wantExceeded string
	}{
		{"exactly at limit does not exceed", "5000", "10000", "100000", "15", "15000", "15000", false, "0"},
		{"one euro over", "5001", "10000", "100000", "15", "15000", "15001", true, "1"},
		{"no prior expenses under limit", "10000", "0", "200000", "15", "30000", "10000", false, "0"},
		{"prior expenses alone already over", "0", "40000", "100000", "15", "15000", "40000", true, "25000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := RenovationLimit(d(tt.newExpense), d(tt.prior), d(tt.building), d(tt.percent))

			if !res.Limit.Equal(d(tt.wantLimit)) {
				t.Errorf("limit = %s, want %s", res.Limit, tt.wantLimit)
			}
			if !res.Total.Equal(d(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", res.Total, tt.wantTotal)
			}
			if res.Applies != tt.wantApplies {
				t.Errorf("applies = %v, want %v", res.Applies, tt.wantApplies)
			}
			if !res.ExceededBy.Equal(d(tt.wantExceeded)) {
				t.Errorf("exceeded_by = %s, want %s", res.ExceededBy, tt.wantExceeded)
			}
		})
	}
}

func date(y, m, day int) time.Time {
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func TestSpeculationExemption_JustPastTenYears(t *testing.T) {
	res := SpeculationExemption(date(2010, 1, 1), date(2020, 1, 2), 10, 5, false)

	if math.Abs(res.YearsHeld-10.003) > 0.01 {
		t.Errorf("years_held = %f, want ~10.003", res.YearsHeld)
	}
	if !res.Exempt {
		t.Errorf("expected exempt just past ten years")
	}
	if res.Status != SpeculationExempt {
		t.Errorf("status = %s, want %s", res.Status, SpeculationExempt)
	}
}

func TestSpeculationExemption_WarningTier(t *testing.T) {
	res := SpeculationExemption(date(2010, 1, 1), date(2016, 6, 1), 10, 5, false)

	if res.Exempt {
		t.Errorf("expected not exempt at ~6.4 years")
	}
	if res.Status != SpeculationWarning {
		t.Errorf("status = %s, want %s", res.Status, SpeculationWarning)
	}
}

func TestSpeculationExemption_TaxableTier(t *testing.T) {
	res := SpeculationExemption(date(2020, 1, 1), date(2022, 1, 1), 10, 5, false)

	if res.Exempt {
		t.Errorf("expected not exempt at 2 years")
	}
	if res.Status != SpeculationTaxable {
		t.Errorf("status = %s, want %s", res.Status, SpeculationTaxable)
	}
}

func TestSpeculationExemption_SelfUseAlwaysExempt(t *testing.T) {
	res := SpeculationExemption(date(2022, 1, 1), date(2023, 1, 1), 10, 5, true)

	if !res.Exempt {
		t.Errorf("expected self-used property exempt after one year")
	}
	if res.Status != SpeculationExempt {
		t.Errorf("status = %s, want %s", res.Status, SpeculationExempt)
	}
}

func TestSpeculationExemption_BoundaryInclusiveOnExemptSide(t *testing.T) {
	// Exactly the warning-window boundary counts as warning, not taxable
	res := SpeculationExemption(date(2015, 1, 1), date(2020, 1, 1), 10, 5, false)
	if res.Status != SpeculationWarning {
		t.Errorf("status at exactly five years = %s, want %s", res.Status, SpeculationWarning)
	}

	// Exactly the threshold counts as exempt
	res = SpeculationExemption(date(2010, 1, 1), date(2020, 1, 1), 10, 5, false)
	if res.Status != SpeculationExempt {
		t.Errorf("status at exactly ten years = %s, want %s", res.Status, SpeculationExempt)
	}
}
