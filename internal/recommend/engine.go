// Package recommend turns per-disease risk results into a prioritized,
// deduplicated action list.
package recommend

import (
	"sort"

	"github.com/health-risk-inference-server/internal/domain"
)

const (
	// minQualifyingRisk is the floor below which a disease contributes
	// no recommendations at all.
	minQualifyingRisk = 0.3
	// maxRecommendations caps the merged output list.
	maxRecommendations = 10

	highPriorityThreshold   = 0.7
	mediumPriorityThreshold = 0.5
)

// Per-disease recommendation catalogs. Texts are part of the downstream
// presentation contract and must stay stable.
var catalogs = map[domain.DiseaseKey][]domain.Recommendation{
	domain.DiseaseCardiovascular: {
		{Text: "Schedule a cardiology consultation", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Discuss blood pressure management with your physician", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Monitor blood pressure at home twice weekly", Priority: domain.PriorityMedium, Category: domain.CategoryMonitoring},
		{Text: "Adopt a heart-healthy diet low in saturated fat", Priority: domain.PriorityMedium, Category: domain.CategoryLifestyle},
		{Text: "Aim for 150 minutes of moderate exercise per week", Priority: domain.PriorityLow, Category: domain.CategoryLifestyle},
		{Text: "Review cholesterol levels at your next checkup", Priority: domain.PriorityLow, Category: domain.CategoryMonitoring},
	},
	domain.DiseaseDiabetesType2: {
		{Text: "Consult an endocrinologist about glucose control", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Request an HbA1c test", Priority: domain.PriorityHigh, Category: domain.CategoryMonitoring},
		{Text: "Reduce intake of refined sugars and processed carbohydrates", Priority: domain.PriorityMedium, Category: domain.CategoryLifestyle},
		{Text: "Monitor fasting glucose weekly", Priority: domain.PriorityMedium, Category: domain.CategoryMonitoring},
		{Text: "Aim for 150 minutes of moderate exercise per week", Priority: domain.PriorityLow, Category: domain.CategoryLifestyle},
		{Text: "Maintain a healthy body weight", Priority: domain.PriorityLow, Category: domain.CategoryLifestyle},
	},
	domain.DiseaseChronicKidney: {
		{Text: "Schedule a nephrology consultation", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Request a kidney function panel (eGFR, urine albumin)", Priority: domain.PriorityHigh, Category: domain.CategoryMonitoring},
		{Text: "Discuss blood pressure management with your physician", Priority: domain.PriorityMedium, Category: domain.CategoryMedical},
		{Text: "Limit dietary sodium intake", Priority: domain.PriorityMedium, Category: domain.CategoryLifestyle},
		{Text: "Stay well hydrated and avoid NSAID overuse", Priority: domain.PriorityLow, Category: domain.CategoryLifestyle},
	},
	domain.DiseaseStroke: {
		{Text: "Seek urgent evaluation of stroke risk factors", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Discuss blood pressure management with your physician", Priority: domain.PriorityHigh, Category: domain.CategoryMedical},
		{Text: "Monitor blood pressure at home twice weekly", Priority: domain.PriorityMedium, Category: domain.CategoryMonitoring},
		{Text: "Stop smoking; ask about cessation support programs", Priority: domain.PriorityMedium, Category: domain.CategoryLifestyle},
		{Text: "Review cholesterol levels at your next checkup", Priority: domain.PriorityLow, Category: domain.CategoryMonitoring},
	},
}

// Engine generates prioritized recommendations from risk results.
type Engine struct{}

// NewEngine creates a recommendation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend merges per-disease catalog entries for every qualifying
// disease, deduplicates by exact text (first occurrence wins), sorts by
// priority rank descending, and caps the list at ten entries.
// Diseases are visited in the fixed supported order so the output is
// deterministic for a given result set.
func (e *Engine) Recommend(results map[domain.DiseaseKey]domain.DiseaseRiskResult, features *domain.NormalizedFeatureSet) []domain.Recommendation {
	var merged []domain.Recommendation
	seen := make(map[string]bool)

	for _, disease := range domain.SupportedDiseases {
		result, ok := results[disease]
		if !ok || result.Errored() || result.RiskScore < minQualifyingRisk {
			continue
		}

		gate := priorityGate(result.RiskScore)
		for _, rec := range catalogs[disease] {
			if !gate.admits(rec.Priority) {
				continue
			}
			if seen[rec.Text] {
				continue
			}
			seen[rec.Text] = true
			merged = append(merged, rec)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority.Rank() > merged[j].Priority.Rank()
	})

	if len(merged) > maxRecommendations {
		merged = merged[:maxRecommendations]
	}
	return merged
}

// gateLevel controls which catalog entries a disease's own risk admits.
type gateLevel domain.RecommendationPriority

func priorityGate(risk float64) gateLevel {
	switch {
	case risk > highPriorityThreshold:
		return gateLevel(domain.PriorityHigh)
	case risk > mediumPriorityThreshold:
		return gateLevel(domain.PriorityMedium)
	default:
		return gateLevel(domain.PriorityLow)
	}
}

// admits implements the gate: high admits everything, medium admits all
// but low-priority entries, low admits only low-priority entries.
func (g gateLevel) admits(p domain.RecommendationPriority) bool {
	switch domain.RecommendationPriority(g) {
	case domain.PriorityHigh:
		return true
	case domain.PriorityMedium:
		return p != domain.PriorityLow
	default:
		return p == domain.PriorityLow
	}
}
