package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status RequestStatus
		want   bool
	}{
		{StatusQueued, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsTerminal(), "status %s", tt.status)
	}
}

func TestRequestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusQueued.IsValid())
	assert.True(t, StatusFailed.IsValid())
	assert.False(t, RequestStatus("pending").IsValid())
	assert.False(t, RequestStatus("").IsValid())
}

func TestBackendKind_IsValid(t *testing.T) {
	assert.True(t, BackendNativeTensor.IsValid())
	assert.True(t, BackendExternalProcess.IsValid())
	assert.True(t, BackendRuleBased.IsValid())
	assert.False(t, BackendKind("grpc").IsValid())
}

func TestDiseaseKey_IsValid(t *testing.T) {
	for _, d := range SupportedDiseases {
		assert.True(t, d.IsValid(), "disease %s", d)
	}
	// Synthetic key is not dispatchable.
	assert.False(t, DiseaseEnsemble.IsValid())
	assert.False(t, DiseaseKey("hypertension").IsValid())
}

func TestCategorizeRisk(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  RiskCategory
	}{
		{"Zero is low", 0.0, RiskLow},
		{"Just under low boundary", 0.19, RiskLow},
		{"Low boundary is moderate", 0.2, RiskModerate},
		{"Just under moderate boundary", 0.49, RiskModerate},
		{"Moderate boundary is high", 0.5, RiskHigh},
		{"Just under high boundary", 0.79, RiskHigh},
		{"High boundary is very high", 0.8, RiskVeryHigh},
		{"Maximum", 1.0, RiskVeryHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeRisk(tt.score))
		})
	}
}

func TestRecommendationPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, RecommendationPriority("urgent").Rank())
}

func TestDiseaseRiskResult_Errored(t *testing.T) {
	ok := DiseaseRiskResult{Disease: DiseaseStroke, RiskScore: 0.4, Confidence: 0.8}
	assert.False(t, ok.Errored())

	bad := DiseaseRiskResult{Disease: DiseaseStroke, Error: "backend unavailable"}
	assert.True(t, bad.Errored())
}

func TestNormalizedFeatureSet_IsSmoker(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"current", true},
		{"former", true},
		{"never", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		fs := &NormalizedFeatureSet{Lifestyle: Lifestyle{SmokingStatus: tt.status}}
		assert.Equal(t, tt.want, fs.IsSmoker(), "status %s", tt.status)
	}
}

func TestNormalizedFeatureSet_Value(t *testing.T) {
	fs := &NormalizedFeatureSet{
		Demographics: Demographics{Age: 64},
		Vitals:       Vitals{BloodPressureSystolic: 142},
		Lifestyle:    Lifestyle{SmokingStatus: "current"},
		FamilyHistory: FamilyHistory{
			Stroke: true,
		},
		Medications: Medications{Count: 3},
		Derived:     DerivedFeatures{BMI: 28.5},
	}

	v, ok := fs.Value("age")
	assert.True(t, ok)
	assert.Equal(t, 64.0, v)

	v, ok = fs.Value("is_smoker")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = fs.Value("family_history_stroke")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = fs.Value("family_history_cardiovascular")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = fs.Value("medication_count")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = fs.Value("no_such_feature")
	assert.False(t, ok)
}
