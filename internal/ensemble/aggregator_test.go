package ensemble

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/health-risk-inference-server/internal/domain"
)

func testAggregator() *Aggregator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewAggregator(logger)
}

func TestAggregator_WeightedAverage(t *testing.T) {
	a := testAggregator()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, RiskScore: 0.8, Confidence: 0.9},
		domain.DiseaseStroke:         {Disease: domain.DiseaseStroke, RiskScore: 0.2, Confidence: 0.5},
	}
	weights := map[domain.DiseaseKey]float64{
		domain.DiseaseCardiovascular: 0.75,
		domain.DiseaseStroke:         0.25,
	}

	out := a.Aggregate(results, weights)
	assert.InDelta(t, 0.65, out.OverallRisk, 0.001)
	assert.InDelta(t, 0.8, out.OverallConfidence, 0.001)
}

func TestAggregator_RenormalizesOverErroredDiseases(t *testing.T) {
	a := testAggregator()

	// Y errored, so the ensemble must equal X's score exactly.
	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, RiskScore: 0.42, Confidence: 0.7},
		domain.DiseaseStroke:         {Disease: domain.DiseaseStroke, Error: "runtime unavailable"},
	}
	weights := map[domain.DiseaseKey]float64{
		domain.DiseaseCardiovascular: 0.6,
		domain.DiseaseStroke:         0.4,
	}

	out := a.Aggregate(results, weights)
	assert.InDelta(t, 0.42, out.OverallRisk, 0.001)
	assert.InDelta(t, 0.7, out.OverallConfidence, 0.001)
}

func TestAggregator_MissingResultDoesNotContribute(t *testing.T) {
	a := testAggregator()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseDiabetesType2: {Disease: domain.DiseaseDiabetesType2, RiskScore: 0.3, Confidence: 0.6},
	}
	weights := map[domain.DiseaseKey]float64{
		domain.DiseaseDiabetesType2:  0.25,
		domain.DiseaseChronicKidney:  0.20,
		domain.DiseaseCardiovascular: 0.30,
	}

	out := a.Aggregate(results, weights)
	assert.InDelta(t, 0.3, out.OverallRisk, 0.001)
}

func TestAggregator_AllErroredYieldsZero(t *testing.T) {
	a := testAggregator()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, Error: "boom"},
		domain.DiseaseStroke:         {Disease: domain.DiseaseStroke, Error: "boom"},
	}
	weights := map[domain.DiseaseKey]float64{
		domain.DiseaseCardiovascular: 0.5,
		domain.DiseaseStroke:         0.5,
	}

	out := a.Aggregate(results, weights)
	assert.Zero(t, out.OverallRisk)
	assert.Zero(t, out.OverallConfidence)
}

func TestAggregator_EmptyInputs(t *testing.T) {
	a := testAggregator()

	out := a.Aggregate(nil, nil)
	assert.Zero(t, out.OverallRisk)
	assert.Zero(t, out.OverallConfidence)
}

func TestAggregator_UnweightedDiseaseIgnored(t *testing.T) {
	a := testAggregator()

	results := map[domain.DiseaseKey]domain.DiseaseRiskResult{
		domain.DiseaseCardiovascular: {Disease: domain.DiseaseCardiovascular, RiskScore: 0.9, Confidence: 0.9},
		domain.DiseaseStroke:         {Disease: domain.DiseaseStroke, RiskScore: 0.1, Confidence: 0.9},
	}
	weights := map[domain.DiseaseKey]float64{
		domain.DiseaseStroke: 1.0,
	}

	out := a.Aggregate(results, weights)
	assert.InDelta(t, 0.1, out.OverallRisk, 0.001)
}
