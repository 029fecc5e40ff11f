// Package ensemble combines per-disease risk results into one overall
// risk/confidence pair using the registry's weight table.
package ensemble

import (
	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// Aggregator performs weighted aggregation over per-disease results.
type Aggregator struct {
	logger *logrus.Logger
}

// NewAggregator creates an ensemble aggregator.
func NewAggregator(logger *logrus.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate renormalizes the configured weights over the diseases that
// produced a non-errored result. Diseases without a configured weight do
// not contribute. If no disease qualifies, both outputs are 0.
func (a *Aggregator) Aggregate(results map[domain.DiseaseKey]domain.DiseaseRiskResult, weights map[domain.DiseaseKey]float64) domain.EnsembleResult {
	var riskSum, confidenceSum, weightSum float64

	for disease, weight := range weights {
		result, ok := results[disease]
		if !ok || result.Errored() {
			continue
		}
		riskSum += result.RiskScore * weight
		confidenceSum += result.Confidence * weight
		weightSum += weight
	}

	if weightSum == 0 {
		a.logger.Warn("No disease results qualified for ensemble aggregation")
		return domain.EnsembleResult{}
	}

	return domain.EnsembleResult{
		OverallRisk:       riskSum / weightSum,
		OverallConfidence: confidenceSum / weightSum,
	}
}
