package collab

import (
	"context"
	"strings"

	"taxengine/internal/service"
)

// keyword weights for the default relevance heuristic. Scores are additive
// and clamped by the caller.
var relevanceKeywords = map[string]int{
	"einkommensteuer":    30,
	"income tax":         30,
	"estg":               25,
	"werbungskosten":     25,
	"abschreibung":       20,
	"afa":                20,
	"spekulation":        30,
	"veräußerung":        20,
	"freigrenze":         30,
	"freibetrag":         25,
	"vermietung":         25,
	"verpachtung":        20,
	"grundsteuer":        20,
	"immobilie":          20,
	"anschaffungsnah":    30,
	"erhaltungsaufwand":  25,
	"sonstige einkünfte": 25,
	"haltefrist":         20,
	"jahressteuergesetz": 25,
	"steuersatz":         15,
	"umsatzsteuer":       10,
	"gewerbesteuer":      5,
}

var taxTypeKeywords = map[string]string{
	"spekulation":        "speculation_tax",
	"veräußerung":        "speculation_tax",
	"haltefrist":         "speculation_tax",
	"einkommensteuer":    "income_tax",
	"sonstige einkünfte": "income_tax",
	"freigrenze":         "income_tax",
	"werbungskosten":     "rental_income",
	"vermietung":         "rental_income",
	"verpachtung":        "rental_income",
	"abschreibung":       "depreciation",
	"afa":                "depreciation",
	"anschaffungsnah":    "renovation",
	"erhaltungsaufwand":  "renovation",
	"grundsteuer":        "property_tax",
	"umsatzsteuer":       "vat",
}

// KeywordClassifier scores candidates by German tax terminology hits in the
// title and summary. It stands in for an external analysis service and is
// the default wiring when none is configured.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(_ context.Context, title, summary string) (service.Classification, error) {
	text := strings.ToLower(title + " " + summary)

	score := 0
	for keyword, weight := range relevanceKeywords {
		if strings.Contains(text, keyword) {
			score += weight
		}
	}
	if score > 100 {
		score = 100
	}

	seen := make(map[string]bool)
	var tags []string
	for keyword, tag := range taxTypeKeywords {
		if strings.Contains(text, keyword) && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	return service.Classification{RelevanceScore: score, AffectedTaxTypes: tags}, nil
}

var _ service.RelevanceClassifier = (*KeywordClassifier)(nil)
