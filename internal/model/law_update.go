package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LawUpdateStatus enum constants
const (
	LawUpdateDetected      = "DETECTED"
	LawUpdateAnalyzing     = "ANALYZING"
	LawUpdatePendingReview = "PENDING_REVIEW"
	LawUpdateImplemented   = "IMPLEMENTED"
	LawUpdateRejected      = "REJECTED"
)

// TaxLawUpdate tracks a legislative-change candidate from detection through
// human review. IMPLEMENTED and REJECTED are terminal; no transition leaves them.
type TaxLawUpdate struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title            string     `gorm:"type:varchar(255);not null" json:"title"`
	Summary          string     `gorm:"type:text" json:"summary"`
	SourceRef        string     `gorm:"type:varchar(255);index" json:"source_ref"` // identifier at the monitored legal source, used for dedupe
	Status           string     `gorm:"type:varchar(20);not null;default:'DETECTED';index" json:"status"`
	RelevanceScore   int        `gorm:"not null;default:0" json:"relevance_score"` // 0-100, set by the classifier
	AffectedTaxTypes string     `gorm:"type:jsonb" json:"affected_tax_types"`      // JSON array of tags
	ReviewedBy       *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	RejectionReason  string     `gorm:"type:text" json:"rejection_reason"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Terminal reports whether the update reached a final state.
func (u *TaxLawUpdate) Terminal() bool {
	return u.Status == LawUpdateImplemented || u.Status == LawUpdateRejected
}

// TaxTypeTags decodes the affected-tax-type tag list.
func (u *TaxLawUpdate) TaxTypeTags() []string {
	if u.AffectedTaxTypes == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(u.AffectedTaxTypes), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTaxTypeTags encodes the affected-tax-type tag list.
func (u *TaxLawUpdate) SetTaxTypeTags(tags []string) {
	if len(tags) == 0 {
		u.AffectedTaxTypes = "[]"
		return
	}
	raw, _ := json.Marshal(tags)
	u.AffectedTaxTypes = string(raw)
}
