package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateConfigEntry     = "CREATE_CONFIG_ENTRY"
	ActionDeactivateConfigEntry = "DEACTIVATE_CONFIG_ENTRY"
	ActionCreateRuleVersion     = "CREATE_RULE_VERSION"
	ActionDeactivateRule        = "DEACTIVATE_RULE"

	// Law update lifecycle actions
	ActionDetectLawUpdate  = "DETECT_LAW_UPDATE"
	ActionAnalyzeLawUpdate = "ANALYZE_LAW_UPDATE"
	ActionApproveLawUpdate = "APPROVE_LAW_UPDATE"
	ActionRejectLawUpdate  = "REJECT_LAW_UPDATE"

	ActionRunLegacyMigration = "RUN_LEGACY_MIGRATION"
)

// AuditLog tracks Who, What, and When for rule/config store changes.
// UserID comes from the admin JWT; nil means an automated run.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(100);index" json:"entity_id"`       // key, rule code or uuid
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
