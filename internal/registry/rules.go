package registry

import (
	"github.com/health-risk-inference-server/internal/domain"
)

// ruleSetVersion tags results produced by the built-in rule tables.
const ruleSetVersion = "rules-1.2.0"

// minimalRuleSetVersion tags the hardcoded last-resort tables.
const minimalRuleSetVersion = "rules-minimal-1.0.0"

// defaultRuleSets returns the full rule-based model table for every
// supported disease. Weights are heuristic configuration data; clinical
// calibration happens upstream of this module.
func defaultRuleSets() map[domain.DiseaseKey]*domain.RuleSet {
	return map[domain.DiseaseKey]*domain.RuleSet{
		domain.DiseaseCardiovascular: {
			Disease: domain.DiseaseCardiovascular,
			Version: ruleSetVersion,
			Rules: []domain.RiskRule{
				{Name: "age_over_65", Weight: 0.20, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Demographics.Age > 65
				}},
				{Name: "smoker", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.IsSmoker()
				}},
				{Name: "elevated_systolic_bp", Weight: 0.20, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Vitals.BloodPressureSystolic >= 140
				}},
				{Name: "high_total_cholesterol", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.CholesterolTotal > 240
				}},
				{Name: "family_history", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.FamilyHistory.CardiovascularDisease
				}},
				{Name: "obesity", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Derived.BMI >= 30
				}},
				{Name: "elevated_fasting_glucose", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.GlucoseFasting >= 126
				}},
			},
		},
		domain.DiseaseDiabetesType2: {
			Disease: domain.DiseaseDiabetesType2,
			Version: ruleSetVersion,
			Rules: []domain.RiskRule{
				{Name: "diabetic_fasting_glucose", Weight: 0.25, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.GlucoseFasting >= 126
				}},
				{Name: "elevated_hba1c", Weight: 0.25, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.HbA1c >= 6.5
				}},
				{Name: "obesity", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Derived.BMI >= 30
				}},
				{Name: "family_history", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.FamilyHistory.DiabetesType2
				}},
				{Name: "age_over_45", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Demographics.Age > 45
				}},
				{Name: "sedentary", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Lifestyle.ExerciseMinutesWeekly < 90
				}},
			},
		},
		domain.DiseaseChronicKidney: {
			Disease: domain.DiseaseChronicKidney,
			Version: ruleSetVersion,
			Rules: []domain.RiskRule{
				{Name: "elevated_creatinine", Weight: 0.30, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.Creatinine > 1.3
				}},
				{Name: "hypertension", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Vitals.BloodPressureSystolic >= 140
				}},
				{Name: "diabetic_comorbidity", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Labs.GlucoseFasting >= 126 || f.Labs.HbA1c >= 6.5
				}},
				{Name: "age_over_60", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Demographics.Age > 60
				}},
				{Name: "family_history", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.FamilyHistory.ChronicKidneyDisease
				}},
				{Name: "on_antihypertensives", Weight: 0.05, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Medications.Antihypertensives
				}},
			},
		},
		domain.DiseaseStroke: {
			Disease: domain.DiseaseStroke,
			Version: ruleSetVersion,
			Rules: []domain.RiskRule{
				{Name: "age_over_65", Weight: 0.20, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Demographics.Age > 65
				}},
				{Name: "severe_hypertension", Weight: 0.25, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Vitals.BloodPressureSystolic >= 160
				}},
				{Name: "smoker", Weight: 0.15, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.IsSmoker()
				}},
				{Name: "family_history", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.FamilyHistory.Stroke
				}},
				{Name: "on_anticoagulants", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Medications.Anticoagulants
				}},
				{Name: "high_ldl_hdl_ratio", Weight: 0.10, Predicate: func(f *domain.NormalizedFeatureSet) bool {
					return f.Derived.LDLHDLRatio > 4.0
				}},
			},
		},
	}
}

// minimalRuleSet builds the hardcoded last-resort rule set for a disease
// so the registry can never end up with zero coverage for a configured
// disease key.
func minimalRuleSet(disease domain.DiseaseKey) *domain.RuleSet {
	return &domain.RuleSet{
		Disease: disease,
		Version: minimalRuleSetVersion,
		Rules: []domain.RiskRule{
			{Name: "elderly", Weight: 0.3, Predicate: func(f *domain.NormalizedFeatureSet) bool {
				return f.Demographics.Age > 65
			}},
			{Name: "multiple_risk_factors", Weight: 0.4, Predicate: func(f *domain.NormalizedFeatureSet) bool {
				return f.Derived.CardiovascularRiskFactors+f.Derived.DiabetesRiskFactors >= 4
			}},
			{Name: "family_history_any", Weight: 0.3, Predicate: func(f *domain.NormalizedFeatureSet) bool {
				h := f.FamilyHistory
				return h.CardiovascularDisease || h.DiabetesType2 || h.ChronicKidneyDisease || h.Stroke
			}},
		},
	}
}
