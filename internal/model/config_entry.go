package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValueType enum constants
const (
	ValueTypeNumber     = "number"
	ValueTypePercentage = "percentage"
	ValueTypeCurrency   = "currency"
	ValueTypeString     = "string"
	ValueTypeBoolean    = "boolean"
)

// ConfigEntry stores a tax constant with tax-year validity.
// For a given key, active validity windows must never overlap:
// a lookup for a tax year resolves to exactly one entry or none.
type ConfigEntry struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key               string    `gorm:"type:varchar(100);not null;index" json:"key"`
	Category          string    `gorm:"type:varchar(50);index" json:"category"` // grouping for admin screens, key is unique within it
	DisplayName       string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Value             string    `gorm:"type:varchar(255);not null" json:"value"`
	ValueType         string    `gorm:"type:varchar(20);not null" json:"value_type"` // number, percentage, currency, string, boolean
	ValidFromTaxYear  int       `gorm:"not null;index" json:"valid_from_tax_year"`   // inclusive
	ValidUntilTaxYear *int      `gorm:"index" json:"valid_until_tax_year"`           // exclusive, nullable = open ended
	IsActive          bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CoversYear reports whether the entry's [from, until) window contains the tax year.
func (e *ConfigEntry) CoversYear(taxYear int) bool {
	if taxYear < e.ValidFromTaxYear {
		return false
	}
	return e.ValidUntilTaxYear == nil || taxYear < *e.ValidUntilTaxYear
}

// DecimalValue parses the stored value for number, percentage and currency entries.
func (e *ConfigEntry) DecimalValue() (decimal.Decimal, error) {
	switch e.ValueType {
	case ValueTypeNumber, ValueTypePercentage, ValueTypeCurrency:
		d, err := decimal.NewFromString(e.Value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("config '%s' holds non-numeric value %q: %w", e.Key, e.Value, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("config '%s' has value type %s, not numeric", e.Key, e.ValueType)
	}
}

// BoolValue parses the stored value for boolean entries.
func (e *ConfigEntry) BoolValue() (bool, error) {
	if e.ValueType != ValueTypeBoolean {
		return false, fmt.Errorf("config '%s' has value type %s, not boolean", e.Key, e.ValueType)
	}
	b, err := strconv.ParseBool(e.Value)
	if err != nil {
		return false, fmt.Errorf("config '%s' holds non-boolean value %q: %w", e.Key, e.Value, err)
	}
	return b, nil
}

// WindowsOverlap reports whether two [from, until) tax-year windows intersect.
// A nil until bound means the window is open ended.
func WindowsOverlap(fromA int, untilA *int, fromB int, untilB *int) bool {
	if untilA != nil && *untilA <= fromB {
		return false
	}
	if untilB != nil && *untilB <= fromA {
		return false
	}
	return true
}

// ValidValueType reports whether t is one of the supported value types.
func ValidValueType(t string) bool {
	switch t {
	case ValueTypeNumber, ValueTypePercentage, ValueTypeCurrency, ValueTypeString, ValueTypeBoolean:
		return true
	}
	return false
}
