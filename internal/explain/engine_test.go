package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-risk-inference-server/internal/domain"
)

func TestEngine_Explain_SkipsErroredResults(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, RiskScore: 0.4, Confidence: 0.7},
		domain.DiseaseStroke:         {Disease: domain.DiseaseStroke, Error: "backend down"},
	}

	explanations := e.Explain(&domain.NormalizedFeatureSet{}, results)

	assert.Len(t, explanations, 1)
	assert.Contains(t, explanations, domain.DiseaseCardiovascular)
	assert.NotContains(t, explanations, domain.DiseaseStroke)
}

func TestEngine_Explain_RiskCategoryAndInterpretation(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		score    float64
		category domain.RiskCategory
	}{
		{"Low", 0.1, domain.RiskLow},
		{"Moderate", 0.35, domain.RiskModerate},
		{"High", 0.65, domain.RiskHigh},
		{"Very high", 0.9, domain.RiskVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
				domain.DiseaseDiabetesType2: {Disease: domain.DiseaseDiabetesType2, RiskScore: tt.score, Confidence: 0.8},
			}
			out := e.Explain(&domain.NormalizedFeatureSet{}, results)
			exp, ok := out[domain.DiseaseDiabetesType2]
			require.True(t, ok)
			assert.Equal(t, tt.category, exp.RiskCategory)
			assert.Contains(t, exp.Interpretation, "type 2 diabetes")
			assert.NotEmpty(t, exp.Interpretation)
		})
	}
}

func TestEngine_Explain_KeyFactorsCappedAtFive(t *testing.T) {
	e := NewEngine()

	// Satisfies all seven cardiovascular checklist entries.
	fs := &domain.NormalizedFeatureSet{
		Demographics: domain.Demographics{Age: 70},
		Vitals:       domain.Vitals{BloodPressureSystolic: 165},
		Labs:         domain.LabResults{CholesterolTotal: 280},
		Lifestyle:    domain.Lifestyle{SmokingStatus: "current"},
		FamilyHistory: domain.FamilyHistory{
			CardiovascularDisease: true,
		},
		Derived: domain.DerivedFeatures{BMI: 33, LDLHDLRatio: 5.0},
	}

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, RiskScore: 0.85, Confidence: 0.9},
	}

	out := e.Explain(fs, results)
	exp := out[domain.DiseaseCardiovascular]
	assert.Len(t, exp.KeyFactors, 5)
	// Checklist order wins: the first five satisfied entries are kept.
	assert.Equal(t, "Age above 45", exp.KeyFactors[0])
	assert.NotContains(t, exp.KeyFactors, "High total cholesterol")
	assert.NotContains(t, exp.KeyFactors, "Elevated LDL/HDL ratio")
}

func TestEngine_Explain_NoSatisfiedFactors(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseStroke: {Disease: domain.DiseaseStroke, RiskScore: 0.05, Confidence: 0.6},
	}

	out := e.Explain(&domain.NormalizedFeatureSet{}, results)
	exp := out[domain.DiseaseStroke]
	assert.Empty(t, exp.KeyFactors)
	assert.Equal(t, domain.RiskLow, exp.RiskCategory)
	assert.Contains(t, exp.Interpretation, "5%")
}
