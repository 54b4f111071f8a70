package model

import (
	"time"

	"github.com/google/uuid"
)

// CategoryType enum constants
const (
	CategoryTypeMaintenance    = "maintenance"
	CategoryTypeConstruction   = "construction"
	CategoryTypeOperating      = "operating"
	CategoryTypeAdministration = "administration"
	CategoryTypeInsurance      = "insurance"
	CategoryTypeTax            = "tax"
	CategoryTypeFinancing      = "financing"
	CategoryTypeOtherCost      = "other"
)

// TaxTreatment enum constants
const (
	TreatmentImmediate     = "immediate"
	TreatmentDepreciate    = "depreciate"
	TreatmentNonDeductible = "non_deductible"
	TreatmentDistributable = "distributable"
)

// CategoryTypeOrder fixes the display order of category groups.
var CategoryTypeOrder = []string{
	CategoryTypeMaintenance,
	CategoryTypeConstruction,
	CategoryTypeOperating,
	CategoryTypeAdministration,
	CategoryTypeInsurance,
	CategoryTypeTax,
	CategoryTypeFinancing,
	CategoryTypeOtherCost,
}

// CostCategory classifies a cost/income position for tax purposes.
// StandardDepreciationYears is set iff the treatment is depreciate.
type CostCategory struct {
	ID                        string          `gorm:"type:varchar(50);primaryKey" json:"id"` // business id, e.g. "maintenance_repairs"
	Name                      string          `gorm:"type:varchar(255);not null" json:"name"`
	NameShort                 string          `gorm:"type:varchar(50)" json:"name_short"`
	Type                      string          `gorm:"type:varchar(20);not null;index" json:"type"`
	Description               string          `gorm:"type:text" json:"description"`
	TaxTreatment              string          `gorm:"type:varchar(20);not null" json:"tax_treatment"`
	StandardDepreciationYears *int            `json:"standard_depreciation_years"`
	Mapping                   *AccountMapping `gorm:"foreignKey:CategoryID" json:"mapping,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

// AccountMapping links a cost category to its booking account and the tax
// declaration line it feeds. Every active category must have exactly one.
type AccountMapping struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID    string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"category_id"`
	AccountNumber string    `gorm:"type:varchar(20);not null" json:"account_number"`
	AccountName   string    `gorm:"type:varchar(255);not null" json:"account_name"`
	TaxLine       string    `gorm:"type:varchar(100);not null" json:"tax_line"` // declaration line, e.g. "Anlage V Zeile 40"
	AfaAccount    *string   `gorm:"type:varchar(20)" json:"afa_account"`        // depreciation account, set iff category depreciates
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidCategoryType reports whether t is one of the fixed category types.
func ValidCategoryType(t string) bool {
	for _, ct := range CategoryTypeOrder {
		if t == ct {
			return true
		}
	}
	return false
}
