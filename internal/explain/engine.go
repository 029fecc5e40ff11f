// Package explain derives human-facing rationale from normalized features
// and per-disease risk results.
package explain

import (
	"fmt"
	"math"

	"github.com/health-risk-inference-server/internal/domain"
)

// maxKeyFactors caps the factor list per explanation.
const maxKeyFactors = 5

// keyFactor pairs a human-readable factor label with its predicate.
type keyFactor struct {
	label     string
	predicate domain.RulePredicate
}

// Per-disease ordered factor checklists. Order is checklist order, not
// importance: truncation keeps the first five satisfied entries, which is
// a deliberate deterministic simplification rather than a learned
// attribution method.
var factorChecklists = map[domain.DiseaseKey][]keyFactor{
	domain.DiseaseCardiovascular: {
		{"Age above 45", func(f *domain.NormalizedFeatureSet) bool { return f.Demographics.Age > 45 }},
		{"Obesity (BMI 30 or higher)", func(f *domain.NormalizedFeatureSet) bool { return f.Derived.BMI >= 30 }},
		{"Elevated systolic blood pressure", func(f *domain.NormalizedFeatureSet) bool { return f.Vitals.BloodPressureSystolic >= 140 }},
		{"Tobacco use", func(f *domain.NormalizedFeatureSet) bool { return f.IsSmoker() }},
		{"Family history of cardiovascular disease", func(f *domain.NormalizedFeatureSet) bool { return f.FamilyHistory.CardiovascularDisease }},
		{"High total cholesterol", func(f *domain.NormalizedFeatureSet) bool { return f.Labs.CholesterolTotal > 240 }},
		{"Elevated LDL/HDL ratio", func(f *domain.NormalizedFeatureSet) bool { return f.Derived.LDLHDLRatio > 4.0 }},
	},
	domain.DiseaseDiabetesType2: {
		{"Fasting glucose in diabetic range", func(f *domain.NormalizedFeatureSet) bool { return f.Labs.GlucoseFasting >= 126 }},
		{"Elevated HbA1c", func(f *domain.NormalizedFeatureSet) bool { return f.Labs.HbA1c >= 5.7 }},
		{"Obesity (BMI 30 or higher)", func(f *domain.NormalizedFeatureSet) bool { return f.Derived.BMI >= 30 }},
		{"Family history of type 2 diabetes", func(f *domain.NormalizedFeatureSet) bool { return f.FamilyHistory.DiabetesType2 }},
		{"Age above 45", func(f *domain.NormalizedFeatureSet) bool { return f.Demographics.Age > 45 }},
		{"Low weekly physical activity", func(f *domain.NormalizedFeatureSet) bool { return f.Lifestyle.ExerciseMinutesWeekly < 90 }},
	},
	domain.DiseaseChronicKidney: {
		{"Elevated serum creatinine", func(f *domain.NormalizedFeatureSet) bool { return f.Labs.Creatinine > 1.3 }},
		{"Elevated systolic blood pressure", func(f *domain.NormalizedFeatureSet) bool { return f.Vitals.BloodPressureSystolic >= 140 }},
		{"Diabetic-range blood sugar", func(f *domain.NormalizedFeatureSet) bool { return f.Labs.GlucoseFasting >= 126 }},
		{"Age above 60", func(f *domain.NormalizedFeatureSet) bool { return f.Demographics.Age > 60 }},
		{"Family history of kidney disease", func(f *domain.NormalizedFeatureSet) bool { return f.FamilyHistory.ChronicKidneyDisease }},
	},
	domain.DiseaseStroke: {
		{"Age above 65", func(f *domain.NormalizedFeatureSet) bool { return f.Demographics.Age > 65 }},
		{"Severely elevated blood pressure", func(f *domain.NormalizedFeatureSet) bool { return f.Vitals.BloodPressureSystolic >= 160 }},
		{"Tobacco use", func(f *domain.NormalizedFeatureSet) bool { return f.IsSmoker() }},
		{"Family history of stroke", func(f *domain.NormalizedFeatureSet) bool { return f.FamilyHistory.Stroke }},
		{"Elevated LDL/HDL ratio", func(f *domain.NormalizedFeatureSet) bool { return f.Derived.LDLHDLRatio > 4.0 }},
		{"Wide pulse pressure", func(f *domain.NormalizedFeatureSet) bool { return f.Derived.PulsePressure > 60 }},
	},
}

// diseaseLabels are the human-readable disease names used in
// interpretation text. Part of the downstream text contract.
var diseaseLabels = map[domain.DiseaseKey]string{
	domain.DiseaseCardiovascular: "cardiovascular disease",
	domain.DiseaseDiabetesType2:  "type 2 diabetes",
	domain.DiseaseChronicKidney:  "chronic kidney disease",
	domain.DiseaseStroke:         "stroke",
}

// Interpretation templates, fixed per risk category. The %d is the
// rounded percentage score; the %s is the disease label.
var interpretationTemplates = map[domain.RiskCategory]string{
	domain.RiskLow:      "Estimated %d%% risk of %s. Current indicators are within a low-risk range.",
	domain.RiskModerate: "Estimated %d%% risk of %s. Some indicators warrant attention and periodic monitoring.",
	domain.RiskHigh:     "Estimated %d%% risk of %s. Multiple indicators are elevated; clinical follow-up is advised.",
	domain.RiskVeryHigh: "Estimated %d%% risk of %s. Indicators suggest substantially elevated risk; prompt clinical evaluation is recommended.",
}

// Engine generates per-disease explanations.
type Engine struct{}

// NewEngine creates an explanation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Explain builds one explanation per non-errored disease result. Errored
// diseases are skipped; the caller surfaces their error separately.
func (e *Engine) Explain(features *domain.NormalizedFeatureSet, results map[domain.DiseaseKey]domain.DiseaseRiskResult) map[domain.DiseaseKey]domain.Explanation {
	explanations := make(map[domain.DiseaseKey]domain.Explanation, len(results))

	for disease, result := range results {
		if result.Errored() {
			continue
		}
		explanations[disease] = e.explainOne(disease, features, result)
	}
	return explanations
}

func (e *Engine) explainOne(disease domain.DiseaseKey, features *domain.NormalizedFeatureSet, result domain.DiseaseRiskResult) domain.Explanation {
	category := domain.CategorizeRisk(result.RiskScore)

	var factors []string
	for _, factor := range factorChecklists[disease] {
		if len(factors) == maxKeyFactors {
			break
		}
		if factor.predicate(features) {
			factors = append(factors, factor.label)
		}
	}

	label, ok := diseaseLabels[disease]
	if !ok {
		label = disease.String()
	}
	percent := int(math.Round(result.RiskScore * 100))

	return domain.Explanation{
		RiskCategory:   category,
		KeyFactors:     factors,
		Interpretation: fmt.Sprintf(interpretationTemplates[category], percent, label),
	}
}
