package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-risk-inference-server/internal/domain"
)

func result(disease domain.DiseaseKey, risk float64) domain.DiseaseRiskResult {
	return domain.DiseaseRiskResult{Disease: disease, RiskScore: risk, Confidence: 0.8}
}

func TestEngine_Recommend_BelowFloorContributesNothing(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: result(domain.DiseaseCardiovascular, 0.29),
		domain.DiseaseStroke:         result(domain.DiseaseStroke, 0.1),
	}

	recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
	assert.Empty(t, recs)
}

func TestEngine_Recommend_PriorityGates(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name           string
		risk           float64
		wantPriorities map[domain.RecommendationPriority]bool
	}{
		{
			name: "Low band admits only low-priority entries",
			risk: 0.4,
			wantPriorities: map[domain.RecommendationPriority]bool{
				domain.PriorityLow: true,
			},
		},
		{
			name: "Medium band admits high and medium",
			risk: 0.6,
			wantPriorities: map[domain.RecommendationPriority]bool{
				domain.PriorityHigh:   true,
				domain.PriorityMedium: true,
			},
		},
		{
			name: "High band admits everything",
			risk: 0.85,
			wantPriorities: map[domain.RecommendationPriority]bool{
				domain.PriorityHigh:   true,
				domain.PriorityMedium: true,
				domain.PriorityLow:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
				domain.DiseaseCardiovascular: result(domain.DiseaseCardiovascular, tt.risk),
			}
			recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
			require.NotEmpty(t, recs)
			for _, rec := range recs {
				assert.True(t, tt.wantPriorities[rec.Priority],
					"unexpected priority %s for %q", rec.Priority, rec.Text)
			}
		})
	}
}

func TestEngine_Recommend_SortedByPriorityDescending(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: result(domain.DiseaseCardiovascular, 0.9),
	}

	recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
	require.NotEmpty(t, recs)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank())
	}
}

func TestEngine_Recommend_DeduplicatesSharedTexts(t *testing.T) {
	e := NewEngine()

	// "Discuss blood pressure management with your physician" appears in
	// the cardiovascular, kidney, and stroke catalogs.
	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: result(domain.DiseaseCardiovascular, 0.9),
		domain.DiseaseChronicKidney:  result(domain.DiseaseChronicKidney, 0.9),
		domain.DiseaseStroke:         result(domain.DiseaseStroke, 0.9),
	}

	recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
	count := 0
	var kept domain.Recommendation
	for _, rec := range recs {
		if rec.Text == "Discuss blood pressure management with your physician" {
			count++
			kept = rec
		}
	}
	assert.Equal(t, 1, count)
	// First occurrence wins: the cardiovascular catalog lists it as high.
	assert.Equal(t, domain.PriorityHigh, kept.Priority)
}

func TestEngine_Recommend_CappedAtTen(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{}
	for _, disease := range domain.SupportedDiseases {
		results[disease] = result(disease, 0.95)
	}

	recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
	assert.Len(t, recs, 10)
}

func TestEngine_Recommend_ErroredDiseaseSkipped(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseDiabetesType2: {Disease: domain.DiseaseDiabetesType2, RiskScore: 0.9, Error: "backend down"},
	}

	recs := e.Recommend(results, &domain.NormalizedFeatureSet{})
	assert.Empty(t, recs)
}

func TestEngine_Recommend_Deterministic(t *testing.T) {
	e := NewEngine()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: result(domain.DiseaseCardiovascular, 0.75),
		domain.DiseaseStroke:         result(domain.DiseaseStroke, 0.75),
	}

	first := e.Recommend(results, &domain.NormalizedFeatureSet{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Recommend(results, &domain.NormalizedFeatureSet{}))
	}
}
