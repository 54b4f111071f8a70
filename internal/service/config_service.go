package service

import (
	"context"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateConfigEntryRequest struct {
	Key               string `json:"key" binding:"required"`
	Category          string `json:"category"`
	DisplayName       string `json:"display_name" binding:"required"`
	Value             string `json:"value" binding:"required"`
	ValueType         string `json:"value_type" binding:"required,oneof=number percentage currency string boolean"`
	ValidFromTaxYear  int    `json:"valid_from_tax_year" binding:"required"`
	ValidUntilTaxYear *int   `json:"valid_until_tax_year"`
}

type ConfigEntryResponse struct {
	ID                string `json:"id"`
	Key               string `json:"key"`
	Category          string `json:"category"`
	DisplayName       string `json:"display_name"`
	Value             string `json:"value"`
	ValueType         string `json:"value_type"`
	ValidFromTaxYear  int    `json:"valid_from_tax_year"`
	ValidUntilTaxYear *int   `json:"valid_until_tax_year"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
}

// --- Interface ---

type ConfigService interface {
	GetConfig(ctx context.Context, key string, taxYear int) (ConfigEntryResponse, error)
	ResolveDecimal(ctx context.Context, key string, taxYear int) (decimal.Decimal, *model.ConfigEntry, error)
	CreateConfig(ctx context.Context, req CreateConfigEntryRequest, userID string) (ConfigEntryResponse, error)
	DeactivateConfig(ctx context.Context, key string, taxYear int, userID string) (ConfigEntryResponse, error)
	ListConfigs(ctx context.Context, page, limit int) ([]ConfigEntryResponse, int64, error)
	ListVersions(ctx context.Context, key string) ([]ConfigEntryResponse, error)
}

type configService struct {
	repo      repository.ConfigEntryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewConfigService(repo repository.ConfigEntryRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) ConfigService {
	return &configService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

// --- Implementation ---

func (s *configService) GetConfig(ctx context.Context, key string, taxYear int) (ConfigEntryResponse, error) {
	entry, err := s.resolveEntry(ctx, key, taxYear)
	if err != nil {
		return ConfigEntryResponse{}, err
	}
	return toConfigResponse(*entry), nil
}

// ResolveDecimal resolves the single active entry for the tax year and
// parses its numeric value. Used by the threshold and evaluation services.
func (s *configService) ResolveDecimal(ctx context.Context, key string, taxYear int) (decimal.Decimal, *model.ConfigEntry, error) {
	entry, err := s.resolveEntry(ctx, key, taxYear)
	if err != nil {
		return decimal.Zero, nil, err
	}
	value, err := entry.DecimalValue()
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: %v", repository.ErrIntegrity, err)
	}
	return value, entry, nil
}

// resolveEntry enforces the exactly-one invariant: zero matches is a
// NotFound, more than one is a fatal data-integrity error, never a silent
// pick.
func (s *configService) resolveEntry(ctx context.Context, key string, taxYear int) (*model.ConfigEntry, error) {
	entries, err := s.repo.FindActiveForYear(ctx, key, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config '%s': %w", key, err)
	}
	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("%w: no active config '%s' for tax year %d", repository.ErrNotFound, key, taxYear)
	case 1:
		return &entries[0], nil
	default:
		return nil, fmt.Errorf("%w: %d active config entries for '%s' cover tax year %d",
			repository.ErrIntegrity, len(entries), key, taxYear)
	}
}

func (s *configService) CreateConfig(ctx context.Context, req CreateConfigEntryRequest, userID string) (ConfigEntryResponse, error) {
	var entry *model.ConfigEntry

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := applyConfigVersion(txCtx, s.repo, req)
		if err != nil {
			return err
		}
		entry = created

		audit := auditEntry(userID, model.ActionCreateConfigEntry, req.Key, req.DisplayName, req)
		if err := s.auditRepo.Create(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return ConfigEntryResponse{}, err
	}

	return toConfigResponse(*entry), nil
}

func (s *configService) DeactivateConfig(ctx context.Context, key string, taxYear int, userID string) (ConfigEntryResponse, error) {
	entry, err := s.resolveEntry(ctx, key, taxYear)
	if err != nil {
		return ConfigEntryResponse{}, err
	}

	entry.IsActive = false
	if err := s.repo.Save(ctx, entry); err != nil {
		return ConfigEntryResponse{}, fmt.Errorf("failed to deactivate config '%s': %w", key, err)
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionDeactivateConfigEntry, key, entry.DisplayName,
		map[string]interface{}{"tax_year": taxYear, "entry_id": entry.ID.String()})

	return toConfigResponse(*entry), nil
}

func (s *configService) ListConfigs(ctx context.Context, page, limit int) ([]ConfigEntryResponse, int64, error) {
	entries, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list config entries: %w", err)
	}

	res := make([]ConfigEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toConfigResponse(e))
	}
	return res, total, nil
}

func (s *configService) ListVersions(ctx context.Context, key string) ([]ConfigEntryResponse, error) {
	entries, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list config versions: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: config '%s'", repository.ErrNotFound, key)
	}

	res := make([]ConfigEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toConfigResponse(e))
	}
	return res, nil
}

// --- Helpers ---

func toConfigResponse(e model.ConfigEntry) ConfigEntryResponse {
	return ConfigEntryResponse{
		ID:                e.ID.String(),
		Key:               e.Key,
		Category:          e.Category,
		DisplayName:       e.DisplayName,
		Value:             e.Value,
		ValueType:         e.ValueType,
		ValidFromTaxYear:  e.ValidFromTaxYear,
		ValidUntilTaxYear: e.ValidUntilTaxYear,
		IsActive:          e.IsActive,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}
