package service

import (
	"context"
	"fmt"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/pkg/metrics"
)

// --- DTOs ---

type MigrationResult struct {
	ConfigsCreated    int `json:"configs_created"`
	RulesCreated      int `json:"rules_created"`
	CategoriesCreated int `json:"categories_created"`
	Skipped           int `json:"skipped"`
}

// --- Interface ---

// MigrationService loads the hard-coded legacy tax data into the versioned
// stores. Running it twice is safe; already-present items are skipped.
type MigrationService interface {
	Migrate(ctx context.Context, userID string) (MigrationResult, error)
}

type migrationService struct {
	configRepo   repository.ConfigEntryRepository
	ruleRepo     repository.RuleRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewMigrationService(
	configRepo repository.ConfigEntryRepository,
	ruleRepo repository.RuleRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MigrationService {
	return &migrationService{
		configRepo:   configRepo,
		ruleRepo:     ruleRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *migrationService) Migrate(ctx context.Context, userID string) (MigrationResult, error) {
	var result MigrationResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, req := range legacyConfigs() {
			count, err := s.configRepo.CountOverlapping(txCtx, req.Key, req.ValidFromTaxYear, req.ValidUntilTaxYear, nil)
			if err != nil {
				return fmt.Errorf("failed to check config '%s': %w", req.Key, err)
			}
			if count > 0 {
				result.Skipped++
				continue
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
			if err := s.configRepo.Create(txCtx, &entry); err != nil {
				return fmt.Errorf("failed to migrate config '%s': %w", req.Key, err)
			}
			result.ConfigsCreated++
		}

		for _, req := range legacyRules() {
			if _, err := model.ParseRuleBody(req.RuleType, req.Body); err != nil {
				return fmt.Errorf("invalid legacy rule '%s': %w", req.RuleCode, err)
			}
			count, err := s.ruleRepo.CountOverlapping(txCtx, req.RuleCode, req.ValidFromTaxYear, req.ValidUntilTaxYear, nil)
			if err != nil {
				return fmt.Errorf("failed to check rule '%s': %w", req.RuleCode, err)
			}
			if count > 0 {
				result.Skipped++
				continue
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
			if err := s.ruleRepo.Create(txCtx, &rule); err != nil {
				return fmt.Errorf("failed to migrate rule '%s': %w", req.RuleCode, err)
			}
			result.RulesCreated++
		}

		for _, category := range legacyCategories() {
			if _, err := s.categoryRepo.FindByID(txCtx, category.ID); err == nil {
				result.Skipped++
				continue
			} else if !isNotFound(err) {
				return fmt.Errorf("failed to check category '%s': %w", category.ID, err)
			}

			mapping := category.Mapping
			category.Mapping = nil
			if err := s.categoryRepo.Create(txCtx, &category); err != nil {
				return fmt.Errorf("failed to migrate category '%s': %w", category.ID, err)
			}
			if mapping != nil {
				mapping.CategoryID = category.ID
				if err := s.categoryRepo.CreateMapping(txCtx, mapping); err != nil {
					return fmt.Errorf("failed to migrate mapping for category '%s': %w", category.ID, err)
				}
			}
			result.CategoriesCreated++
		}

		audit := auditEntry(userID, model.ActionRunLegacyMigration, "legacy_migration", "Legacy tax data migration", result)
		if err := s.auditRepo.Create(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return MigrationResult{}, err
	}

	metrics.MigrationRuns.Inc()
	return result, nil
}

// --- Legacy data ---

// legacyConfigs returns the hard-coded constants of the pre-engine codebase
// as versioned entries. The Freigrenze carries two versions because the 2024
// Wachstumschancengesetz raised it from 600 to 1000 euros.
func legacyConfigs() []CreateConfigEntryRequest {
	until2024 := 2024
	return []CreateConfigEntryRequest{
		{
			Key:              ConfigKeyFreigrenze,
			Category:         "income_tax",
			DisplayName:      "Freigrenze für sonstige Einkünfte (§ 22 Nr. 3 EStG)",
			Value:            "600",
			ValueType:        model.ValueTypeCurrency,
			ValidFromTaxYear: 2009, ValidUntilTaxYear: &until2024,
		},
		{
			Key:              ConfigKeyFreigrenze,
			Category:         "income_tax",
			DisplayName:      "Freigrenze für sonstige Einkünfte (§ 22 Nr. 3 EStG)",
			Value:            "1000",
			ValueType:        model.ValueTypeCurrency,
			ValidFromTaxYear: 2024,
		},
		{
			Key:              ConfigKeyRenovationLimitPercent,
			Category:         "renovation",
			DisplayName:      "Anschaffungsnaher Aufwand, Grenze in Prozent (§ 6 Abs. 1 Nr. 1a EStG)",
			Value:            "15",
			ValueType:        model.ValueTypePercentage,
			ValidFromTaxYear: 2004,
		},
		{
			Key:              ConfigKeySpeculationYears,
			Category:         "speculation_tax",
			DisplayName:      "Spekulationsfrist für Immobilien in Jahren (§ 23 EStG)",
			Value:            "10",
			ValueType:        model.ValueTypeNumber,
			ValidFromTaxYear: 1999,
		},
		{
			Key:              ConfigKeySpeculationWarningYears,
			Category:         "speculation_tax",
			DisplayName:      "Warnfenster vor Ablauf der Spekulationsfrist in Jahren",
			Value:            "5",
			ValueType:        model.ValueTypeNumber,
			ValidFromTaxYear: 1999,
		},
		{
			Key:              "afa_gebaeude_prozent",
			Category:         "depreciation",
			DisplayName:      "Lineare AfA für Wohngebäude in Prozent (§ 7 Abs. 4 EStG)",
			Value:            "2",
			ValueType:        model.ValueTypePercentage,
			ValidFromTaxYear: 1925,
		},
	}
}

func legacyRules() []CreateRuleRequest {
	return []CreateRuleRequest{
		{
			RuleCode:         "minor_income_freigrenze",
			DisplayName:      "Freigrenze für sonstige Einkünfte",
			RuleType:         model.RuleTypeThreshold,
			Body:             `{"threshold":{"limit_config_key":"` + ConfigKeyFreigrenze + `","basis":"absolute","cliff_taxation":true}}`,
			ValidFromTaxYear: 2009,
		},
		{
			RuleCode:         "renovation_acquisition_limit",
			DisplayName:      "Anschaffungsnaher Herstellungsaufwand",
			RuleType:         model.RuleTypeThreshold,
			Body:             `{"threshold":{"limit_config_key":"` + ConfigKeyRenovationLimitPercent + `","basis":"percent_of_base","cliff_taxation":false}}`,
			ValidFromTaxYear: 2004,
		},
		{
			RuleCode:         "speculation_holding_period",
			DisplayName:      "Spekulationsfrist bei privaten Veräußerungsgeschäften",
			RuleType:         model.RuleTypeExemption,
			Body:             `{"exemption":{"holding_period_config_key":"` + ConfigKeySpeculationYears + `","self_use_exempts":true,"warning_window_years":5}}`,
			ValidFromTaxYear: 1999,
		},
		{
			RuleCode:         "categorize_repairs",
			DisplayName:      "Reparaturaufwand als Erhaltungsaufwand",
			RuleType:         model.RuleTypeCategorization,
			Body:             `{"categorization":{"conditions":[{"field":"description","operator":"contains","value":"reparatur"}],"category_id":"maintenance_repairs"}}`,
			ValidFromTaxYear: 2004,
		},
		{
			RuleCode:         "categorize_property_tax",
			DisplayName:      "Grundsteuer als umlagefähige Betriebskosten",
			RuleType:         model.RuleTypeCategorization,
			Body:             `{"categorization":{"conditions":[{"field":"description","operator":"contains","value":"grundsteuer"}],"category_id":"tax_property"}}`,
			ValidFromTaxYear: 2004,
		},
	}
}

func legacyCategories() []model.CostCategory {
	years50 := 50
	afa := "4831"
	return []model.CostCategory{
		{
			ID:           "maintenance_repairs",
			Name:         "Instandhaltung und Reparaturen",
			NameShort:    "Instandhaltung",
			Type:         model.CategoryTypeMaintenance,
			Description:  "Laufende Reparaturen und Erhaltungsaufwand am Gebäude",
			TaxTreatment: model.TreatmentImmediate,
			Mapping: &model.AccountMapping{
				AccountNumber: "4260",
				AccountName:   "Instandhaltung betrieblicher Räume",
				TaxLine:       "Anlage V Zeile 40",
			},
		},
		{
			ID:                        "construction_extension",
			Name:                      "Herstellungskosten An- und Umbau",
			NameShort:                 "Herstellungskosten",
			Type:                      model.CategoryTypeConstruction,
			Description:               "Nachträgliche Herstellungskosten, über die Nutzungsdauer abzuschreiben",
			TaxTreatment:              model.TreatmentDepreciate,
			StandardDepreciationYears: &years50,
			Mapping: &model.AccountMapping{
				AccountNumber: "0165",
				AccountName:   "Gebäude und Außenanlagen",
				TaxLine:       "Anlage V Zeile 33",
				AfaAccount:    &afa,
			},
		},
		{
			ID:           "operating_utilities",
			Name:         "Betriebskosten Ver- und Entsorgung",
			NameShort:    "Betriebskosten",
			Type:         model.CategoryTypeOperating,
			Description:  "Wasser, Abwasser, Müllabfuhr und vergleichbare umlagefähige Kosten",
			TaxTreatment: model.TreatmentDistributable,
			Mapping: &model.AccountMapping{
				AccountNumber: "4240",
				AccountName:   "Gas, Strom, Wasser",
				TaxLine:       "Anlage V Zeile 47",
			},
		},
		{
			ID:           "admin_property_management",
			Name:         "Hausverwaltung",
			NameShort:    "Verwaltung",
			Type:         model.CategoryTypeAdministration,
			Description:  "Vergütung der Hausverwaltung, nicht umlagefähig",
			TaxTreatment: model.TreatmentImmediate,
			Mapping: &model.AccountMapping{
				AccountNumber: "4650",
				AccountName:   "Verwaltungskosten",
				TaxLine:       "Anlage V Zeile 46",
			},
		},
		{
			ID:           "insurance_building",
			Name:         "Gebäudeversicherung",
			NameShort:    "Versicherung",
			Type:         model.CategoryTypeInsurance,
			Description:  "Wohngebäude- und Elementarversicherung",
			TaxTreatment: model.TreatmentDistributable,
			Mapping: &model.AccountMapping{
				AccountNumber: "4360",
				AccountName:   "Versicherungen",
				TaxLine:       "Anlage V Zeile 47",
			},
		},
		{
			ID:           "tax_property",
			Name:         "Grundsteuer",
			NameShort:    "Grundsteuer",
			Type:         model.CategoryTypeTax,
			Description:  "Grundsteuer B, umlagefähig auf die Mieter",
			TaxTreatment: model.TreatmentDistributable,
			Mapping: &model.AccountMapping{
				AccountNumber: "4320",
				AccountName:   "Grundsteuer",
				TaxLine:       "Anlage V Zeile 47",
			},
		},
		{
			ID:           "financing_interest",
			Name:         "Schuldzinsen Finanzierung",
			NameShort:    "Schuldzinsen",
			Type:         model.CategoryTypeFinancing,
			Description:  "Zinsen für Darlehen zur Finanzierung der Immobilie",
			TaxTreatment: model.TreatmentImmediate,
			Mapping: &model.AccountMapping{
				AccountNumber: "2110",
				AccountName:   "Zinsaufwendungen für langfristige Verbindlichkeiten",
				TaxLine:       "Anlage V Zeile 37",
			},
		},
		{
			ID:           "other_private",
			Name:         "Private Kosten ohne Abzug",
			NameShort:    "Privat",
			Type:         model.CategoryTypeOtherCost,
			Description:  "Privat veranlasste Kosten ohne steuerliche Auswirkung",
			TaxTreatment: model.TreatmentNonDeductible,
			Mapping: &model.AccountMapping{
				AccountNumber: "1800",
				AccountName:   "Privatentnahmen",
				TaxLine:       "keine",
			},
		},
	}
}
