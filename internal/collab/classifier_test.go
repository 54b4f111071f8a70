package collab

import (
	"context"
	"testing"
)

func TestKeywordClassifierScoresTaxLegislation(t *testing.T) {
	classifier := NewKeywordClassifier()

	relevant, err := classifier.Classify(context.Background(),
		"Jahressteuergesetz: Freigrenze für sonstige Einkünfte angehoben",
		"Die Einkommensteuer-Freigrenze steigt, Auswirkungen auf Vermietung und Verpachtung.")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if relevant.RelevanceScore < 50 {
		t.Errorf("tax legislation should score high, got %d", relevant.RelevanceScore)
	}
	if !containsTag(relevant.AffectedTaxTypes, "income_tax") {
		t.Errorf("expected income_tax tag, got %v", relevant.AffectedTaxTypes)
	}
	if !containsTag(relevant.AffectedTaxTypes, "rental_income") {
		t.Errorf("expected rental_income tag, got %v", relevant.AffectedTaxTypes)
	}

	irrelevant, err := classifier.Classify(context.Background(),
		"Änderung des Bundesjagdgesetzes", "Neue Regelungen zur Jagdausübung.")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if irrelevant.RelevanceScore >= 30 {
		t.Errorf("unrelated legislation should score low, got %d", irrelevant.RelevanceScore)
	}
}

func TestKeywordClassifierClampsScore(t *testing.T) {
	classifier := NewKeywordClassifier()

	// A text hitting nearly every keyword must not exceed 100.
	result, err := classifier.Classify(context.Background(),
		"Einkommensteuer EStG Werbungskosten Abschreibung AfA Spekulation Freigrenze",
		"Vermietung Verpachtung Grundsteuer Immobilie anschaffungsnaher Erhaltungsaufwand Haltefrist Jahressteuergesetz Steuersatz")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.RelevanceScore > 100 {
		t.Errorf("score must be clamped to 100, got %d", result.RelevanceScore)
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
