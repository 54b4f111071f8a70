package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
)

// --- DTOs ---

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name,omitempty"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"created_at"`
}

// --- Interface ---

type AuditService interface {
	ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// --- Implementation ---

func (s *auditService) ListLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, total, nil
}

// --- Helpers ---

func toAuditResponse(l model.AuditLog) AuditLogResponse {
	res := AuditLogResponse{
		ID:         l.ID.String(),
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
	if l.UserID != nil {
		id := l.UserID.String()
		res.UserID = &id
	}
	if json.Valid([]byte(l.Details)) {
		res.Details = json.RawMessage(l.Details)
	}
	return res
}
